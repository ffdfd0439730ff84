package model

import (
	"time"

	"github.com/moonssword/dating-bot/internal/domain/enums"
)

type Account struct {
	ID          int64             `json:"id"`
	TelegramID  int64             `json:"telegram_id"`
	Username    string            `json:"username"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Locale      string            `json:"locale"`
	GlobalState enums.GlobalState `json:"global_state"`
	BlockReason enums.BlockReason `json:"block_reason"`
	BlockedAt   *time.Time        `json:"blocked_at"`
	IsBot       bool              `json:"is_bot"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type Report struct {
	ID         int64              `json:"id"`
	AccountID  int64              `json:"account_id"`
	ReporterID int64              `json:"reporter_id"`
	Reason     enums.ReportReason `json:"reason"`
	CreatedAt  time.Time          `json:"created_at"`
}
