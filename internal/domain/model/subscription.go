package model

import (
	"time"

	"github.com/moonssword/dating-bot/internal/domain/enums"
)

type Features struct {
	UnlimitedLikes bool `json:"unlimited_likes"`
	SeeWhoLikesYou bool `json:"see_who_likes_you"`
	AdFree         bool `json:"ad_free"`
}

type Subscription struct {
	AccountID int64                  `json:"account_id"`
	Tier      enums.SubscriptionTier `json:"tier"`
	IsActive  bool                   `json:"is_active"`
	StartDate time.Time              `json:"start_date"`
	EndDate   *time.Time             `json:"end_date"`
	Features  Features               `json:"features"`
}

type Order struct {
	ID        int64                  `json:"id"`
	AccountID int64                  `json:"account_id"`
	OrderID   string                 `json:"order_id"`
	InvoiceID string                 `json:"invoice_id"`
	Tier      enums.SubscriptionTier `json:"tier"`
	PlanCode  string                 `json:"plan_code"`
	Status    enums.PaymentStatus    `json:"status"`
	Amount    int64                  `json:"amount"`
	Currency  string                 `json:"currency"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}
