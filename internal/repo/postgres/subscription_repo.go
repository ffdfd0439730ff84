package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
)

var ErrOrderNotFound = errors.New("subscription order not found")

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// Get returns the account's subscription row. Accounts without a row
// are on the basic tier.
func (r *SubscriptionRepo) Get(ctx context.Context, accountID int64) (model.Subscription, error) {
	var s model.Subscription
	err := r.pool.QueryRow(ctx, `
SELECT account_id, tier, is_active, start_date, end_date,
	unlimited_likes, see_who_likes_you, ad_free
FROM subscriptions
WHERE account_id = $1
`, accountID).Scan(
		&s.AccountID,
		&s.Tier,
		&s.IsActive,
		&s.StartDate,
		&s.EndDate,
		&s.Features.UnlimitedLikes,
		&s.Features.SeeWhoLikesYou,
		&s.Features.AdFree,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{
				AccountID: accountID,
				Tier:      enums.TierBasic,
				IsActive:  false,
			}, nil
		}
		return model.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

// Activate upserts a paid tier with its feature flags and window.
func (r *SubscriptionRepo) Activate(ctx context.Context, accountID int64, tier enums.SubscriptionTier, features model.Features, start time.Time, end *time.Time) error {
	if accountID <= 0 {
		return fmt.Errorf("invalid account id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO subscriptions (
	account_id, tier, is_active, start_date, end_date,
	unlimited_likes, see_who_likes_you, ad_free
) VALUES ($1, $2, TRUE, $3, $4, $5, $6, $7)
ON CONFLICT (account_id) DO UPDATE SET
	tier = EXCLUDED.tier,
	is_active = TRUE,
	start_date = EXCLUDED.start_date,
	end_date = EXCLUDED.end_date,
	unlimited_likes = EXCLUDED.unlimited_likes,
	see_who_likes_you = EXCLUDED.see_who_likes_you,
	ad_free = EXCLUDED.ad_free
`, accountID, tier, start, end, features.UnlimitedLikes, features.SeeWhoLikesYou, features.AdFree); err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	return nil
}

// DowngradeExpired flips every lapsed paid subscription back to basic
// and returns the affected account ids so the callers can notify them.
func (r *SubscriptionRepo) DowngradeExpired(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
UPDATE subscriptions
SET tier = $2,
	is_active = FALSE,
	end_date = NULL,
	unlimited_likes = FALSE,
	see_who_likes_you = FALSE,
	ad_free = FALSE
WHERE is_active
  AND tier <> $2
  AND end_date IS NOT NULL
  AND end_date <= $1
RETURNING account_id
`, now, enums.TierBasic)
	if err != nil {
		return nil, fmt.Errorf("downgrade expired subscriptions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan downgraded account: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downgraded accounts: %w", err)
	}

	return ids, nil
}

func (r *SubscriptionRepo) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	if o.AccountID <= 0 || o.OrderID == "" {
		return model.Order{}, fmt.Errorf("invalid order payload")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO subscription_orders (
	account_id, order_id, invoice_id, status, amount, currency, tier, plan_code, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
RETURNING id, created_at, updated_at
`, o.AccountID, o.OrderID, o.InvoiceID, o.Status, o.Amount, o.Currency, o.Tier, o.PlanCode).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}

	return o, nil
}

func (r *SubscriptionRepo) FindOrder(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx, `
SELECT id, account_id, order_id, COALESCE(invoice_id, ''), status, amount, currency, tier, COALESCE(plan_code, ''), created_at, updated_at
FROM subscription_orders
WHERE order_id = $1
`, orderID).Scan(&o.ID, &o.AccountID, &o.OrderID, &o.InvoiceID, &o.Status, &o.Amount, &o.Currency, &o.Tier, &o.PlanCode, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

// UpdateOrderStatus advances an order unless it already reached a
// terminal status. Returns the stored order and whether this call
// changed it.
func (r *SubscriptionRepo) UpdateOrderStatus(ctx context.Context, orderID string, status enums.PaymentStatus) (model.Order, bool, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx, `
UPDATE subscription_orders
SET status = $2, updated_at = NOW()
WHERE order_id = $1
  AND status NOT IN ($3, $4)
RETURNING id, account_id, order_id, COALESCE(invoice_id, ''), status, amount, currency, tier, COALESCE(plan_code, ''), created_at, updated_at
`, orderID, status, enums.PaymentStatusSuccess, enums.PaymentStatusExpired).Scan(
		&o.ID, &o.AccountID, &o.OrderID, &o.InvoiceID, &o.Status, &o.Amount, &o.Currency, &o.Tier, &o.PlanCode, &o.CreatedAt, &o.UpdatedAt)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, false, fmt.Errorf("update order status: %w", err)
	}

	o, err = r.FindOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, false, err
	}
	return o, false, nil
}
