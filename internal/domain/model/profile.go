package model

import (
	"time"

	"github.com/moonssword/dating-bot/internal/domain/enums"
)

// Location is the profile's resolved place. Lat/Lon are authoritative only
// when SentGeolocation is true (the user shared device coordinates rather
// than picking a city by name).
type Location struct {
	Locality        string  `json:"locality"`
	DisplayName     string  `json:"display_name"`
	State           string  `json:"state"`
	Country         string  `json:"country"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	SentGeolocation bool    `json:"sent_geolocation"`
}

type Preferences struct {
	Gender   enums.Gender `json:"gender"`
	AgeMin   int          `json:"age_min"`
	AgeMax   int          `json:"age_max"`
	Locality string       `json:"locality"`
	Country  string       `json:"country"`
}

type ProfilePhoto struct {
	PhotoID     int64     `json:"photo_id"`
	Path        string    `json:"path"`
	BlurredPath string    `json:"blurred_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type Profile struct {
	AccountID   int64        `json:"account_id"`
	DisplayName string       `json:"display_name"`
	Gender      enums.Gender `json:"gender"`
	Birthdate   *time.Time   `json:"birthdate"`
	Age         int          `json:"age"`
	AboutMe     string       `json:"about_me"`
	IsActive    bool         `json:"is_active"`
	Photo       ProfilePhoto `json:"photo"`
	Location    Location     `json:"location"`
	Preferences Preferences  `json:"preferences"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
