package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

func (r *LikeRepo) AddLike(ctx context.Context, tx pgx.Tx, fromAccountID, toAccountID int64) error {
	if fromAccountID <= 0 || toAccountID <= 0 || fromAccountID == toAccountID {
		return fmt.Errorf("invalid like payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO profile_likes (from_account_id, to_account_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (from_account_id, to_account_id) DO NOTHING
`, fromAccountID, toAccountID); err != nil {
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// HasLike reports whether fromAccountID has already liked toAccountID.
// Called inside the like transaction to detect reciprocity.
func (r *LikeRepo) HasLike(ctx context.Context, tx pgx.Tx, fromAccountID, toAccountID int64) (bool, error) {
	if fromAccountID <= 0 || toAccountID <= 0 {
		return false, fmt.Errorf("invalid like lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM profile_likes
WHERE from_account_id = $1 AND to_account_id = $2
LIMIT 1
`, fromAccountID, toAccountID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}

	return true, nil
}

func (r *LikeRepo) AddDislike(ctx context.Context, fromAccountID, toAccountID int64) error {
	if fromAccountID <= 0 || toAccountID <= 0 || fromAccountID == toAccountID {
		return fmt.Errorf("invalid dislike payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO profile_dislikes (from_account_id, to_account_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (from_account_id, to_account_id) DO NOTHING
`, fromAccountID, toAccountID); err != nil {
		return fmt.Errorf("insert dislike: %w", err)
	}

	return nil
}

// CountLikesSince returns how many likes the account has sent since the
// cutoff. Backs the daily limit for basic-tier accounts.
func (r *LikeRepo) CountLikesSince(ctx context.Context, fromAccountID int64, since time.Time) (int, error) {
	if fromAccountID <= 0 {
		return 0, fmt.Errorf("invalid like count payload")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM profile_likes
WHERE from_account_id = $1 AND created_at >= $2
`, fromAccountID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// ListLikers returns accounts that liked toAccountID and are not yet
// matched with them, newest like first.
func (r *LikeRepo) ListLikers(ctx context.Context, toAccountID int64, limit int) ([]int64, error) {
	if toAccountID <= 0 {
		return nil, fmt.Errorf("invalid likers lookup payload")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
SELECT l.from_account_id
FROM profile_likes l
WHERE l.to_account_id = $1
  AND NOT EXISTS (
    SELECT 1 FROM matches m
    WHERE m.account_a = LEAST(l.from_account_id, l.to_account_id)
      AND m.account_b = GREATEST(l.from_account_id, l.to_account_id)
  )
ORDER BY l.created_at DESC
LIMIT $2
`, toAccountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	defer rows.Close()

	var likers []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liker: %w", err)
		}
		likers = append(likers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likers: %w", err)
	}

	return likers, nil
}

// CountLikers backs the teaser shown to accounts without the
// see-who-likes-you feature.
func (r *LikeRepo) CountLikers(ctx context.Context, toAccountID int64) (int, error) {
	if toAccountID <= 0 {
		return 0, fmt.Errorf("invalid likers count payload")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM profile_likes l
WHERE l.to_account_id = $1
  AND NOT EXISTS (
    SELECT 1 FROM matches m
    WHERE m.account_a = LEAST(l.from_account_id, l.to_account_id)
      AND m.account_b = GREATEST(l.from_account_id, l.to_account_id)
  )
`, toAccountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likers: %w", err)
	}

	return count, nil
}
