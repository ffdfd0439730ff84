package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moonssword/dating-bot/internal/domain/model"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

func (r *PhotoRepo) Create(ctx context.Context, p model.Photo) (model.Photo, error) {
	if p.AccountID <= 0 || p.ObjectKey == "" {
		return model.Photo{}, fmt.Errorf("invalid photo payload")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO photos (
	account_id,
	object_key,
	path,
	blurred_path,
	size,
	verified,
	uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING id, uploaded_at
`, p.AccountID, p.ObjectKey, p.Path, p.BlurredPath, p.Size, p.Verified).Scan(&p.ID, &p.UploadedAt)
	if err != nil {
		return model.Photo{}, fmt.Errorf("insert photo: %w", err)
	}

	return p, nil
}

// IncrementRejectCount bumps the account's consecutive photo rejection
// counter and returns the new value.
func (r *PhotoRepo) IncrementRejectCount(ctx context.Context, accountID int64) (int, error) {
	if accountID <= 0 {
		return 0, fmt.Errorf("invalid account id")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
INSERT INTO photo_stats (account_id, reject_count, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (account_id) DO UPDATE SET
	reject_count = photo_stats.reject_count + 1,
	updated_at = NOW()
RETURNING reject_count
`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment photo reject count: %w", err)
	}

	return count, nil
}

func (r *PhotoRepo) ResetRejectCount(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return fmt.Errorf("invalid account id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO photo_stats (account_id, reject_count, updated_at)
VALUES ($1, 0, NOW())
ON CONFLICT (account_id) DO UPDATE SET
	reject_count = 0,
	updated_at = NOW()
`, accountID); err != nil {
		return fmt.Errorf("reset photo reject count: %w", err)
	}

	return nil
}
