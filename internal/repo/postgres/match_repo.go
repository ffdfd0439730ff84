package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepo stores mutual matches. A pair is stored once in canonical
// order: account_a is the smaller account id.
type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

type MatchRecord struct {
	AccountA  int64
	AccountB  int64
	CreatedAt time.Time
}

func canonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Create inserts the pair inside the like transaction. Returns false
// when the pair already existed.
func (r *MatchRepo) Create(ctx context.Context, tx pgx.Tx, accountA, accountB int64) (bool, error) {
	if accountA <= 0 || accountB <= 0 || accountA == accountB {
		return false, fmt.Errorf("invalid match pair")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	a, b := canonicalPair(accountA, accountB)
	tag, err := tx.Exec(ctx, `
INSERT INTO matches (account_a, account_b, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (account_a, account_b) DO NOTHING
`, a, b)
	if err != nil {
		return false, fmt.Errorf("insert match: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes the pair and both underlying likes. The dislike the
// caller records alongside keeps the pair out of the candidate queue.
func (r *MatchRepo) Delete(ctx context.Context, tx pgx.Tx, accountA, accountB int64) (bool, error) {
	if accountA <= 0 || accountB <= 0 {
		return false, fmt.Errorf("invalid match delete")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	a, b := canonicalPair(accountA, accountB)
	tag, err := tx.Exec(ctx, `
DELETE FROM matches
WHERE account_a = $1 AND account_b = $2
`, a, b)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM profile_likes
WHERE (from_account_id = $1 AND to_account_id = $2)
   OR (from_account_id = $2 AND to_account_id = $1)
`, a, b); err != nil {
		return false, fmt.Errorf("delete match likes: %w", err)
	}

	return true, nil
}

// ListForAccount returns the account's matches, newest first.
func (r *MatchRepo) ListForAccount(ctx context.Context, accountID int64) ([]MatchRecord, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("invalid account id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT account_a, account_b, created_at
FROM matches
WHERE account_a = $1 OR account_b = $1
ORDER BY created_at DESC
`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		if err := rows.Scan(&rec.AccountA, &rec.AccountB, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return records, nil
}
