package model

import "time"

type Photo struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	ObjectKey   string    `json:"object_key"`
	Path        string    `json:"path"`
	BlurredPath string    `json:"blurred_path"`
	Size        int64     `json:"size"`
	Verified    bool      `json:"verified"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
