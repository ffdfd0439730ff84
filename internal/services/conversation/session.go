package conversation

import (
	"errors"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Draft accumulates profile fields while the account walks through
// registration or a settings editor. Birthdate is kept as 2006-01-02.
type Draft struct {
	Locale      string
	Gender      enums.Gender
	DisplayName string
	Birthdate   string
	About       string
	Location    model.Location
	Photo       model.ProfilePhoto
}

// Session is the per-account conversation position. It lives in redis
// with a sliding TTL; an expired session self-heals to the main menu
// for active accounts and restarts registration otherwise.
type Session struct {
	AccountID        int64
	State            enums.ChatState
	Draft            Draft
	CandidateID      int64
	ReportTargetID   int64
	CityOptionsToken string
	LastPromptID     int
}

func newSession(accountID int64, state enums.ChatState) Session {
	return Session{AccountID: accountID, State: state}
}
