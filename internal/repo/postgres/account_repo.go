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

var ErrAccountNotFound = errors.New("account not found")

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const accountColumns = `
	id,
	telegram_id,
	COALESCE(username, ''),
	COALESCE(first_name, ''),
	COALESCE(last_name, ''),
	COALESCE(locale, 'en'),
	global_state,
	COALESCE(block_reason, ''),
	blocked_at,
	is_bot,
	created_at,
	updated_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.TelegramID,
		&a.Username,
		&a.FirstName,
		&a.LastName,
		&a.Locale,
		&a.GlobalState,
		&a.BlockReason,
		&a.BlockedAt,
		&a.IsBot,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// GetOrCreate resolves the account for an inbound telegram sender,
// creating a fresh one in the new state on first contact. The bool
// reports whether the row was created by this call.
func (r *AccountRepo) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName, locale string, isBot bool) (model.Account, bool, error) {
	if telegramID == 0 {
		return model.Account{}, false, fmt.Errorf("telegram id is required")
	}

	account, err := scanAccount(r.pool.QueryRow(ctx, `
INSERT INTO accounts (
	telegram_id,
	username,
	first_name,
	last_name,
	locale,
	global_state,
	is_bot,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
ON CONFLICT (telegram_id) DO NOTHING
RETURNING`+accountColumns, telegramID, username, firstName, lastName, locale, enums.GlobalStateNew, isBot))
	if err == nil {
		return account, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, false, fmt.Errorf("insert account: %w", err)
	}

	account, err = r.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return model.Account{}, false, err
	}
	return account, false, nil
}

func (r *AccountRepo) GetByTelegramID(ctx context.Context, telegramID int64) (model.Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, `
SELECT`+accountColumns+`
FROM accounts
WHERE telegram_id = $1
`, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account by telegram id: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, accountID int64) (model.Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, `
SELECT`+accountColumns+`
FROM accounts
WHERE id = $1
`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account by id: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) SetGlobalState(ctx context.Context, accountID int64, state enums.GlobalState) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET global_state = $2, updated_at = NOW()
WHERE id = $1
`, accountID, state)
	if err != nil {
		return fmt.Errorf("set global state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetBlock moves the account into the given restricted state and records
// why and when. Used for blocked, banned and rejected alike.
func (r *AccountRepo) SetBlock(ctx context.Context, accountID int64, state enums.GlobalState, reason enums.BlockReason, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET global_state = $2,
	block_reason = $3,
	blocked_at = $4,
	updated_at = NOW()
WHERE id = $1
`, accountID, state, reason, at)
	if err != nil {
		return fmt.Errorf("set account block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ClearBlock lifts a block and forgets the accumulated reports, so the
// account starts with a clean slate instead of sitting one report away
// from the threshold again.
func (r *AccountRepo) ClearBlock(ctx context.Context, accountID int64, state enums.GlobalState) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET global_state = $2,
	block_reason = '',
	blocked_at = NULL,
	updated_at = NOW()
WHERE id = $1
`, accountID, state)
	if err != nil {
		return fmt.Errorf("clear account block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM account_reports WHERE account_id = $1
`, accountID); err != nil {
		return fmt.Errorf("clear account reports: %w", err)
	}
	return nil
}

// AddReport stores a complaint and returns how many distinct reporters
// the account has accumulated. A repeat report by the same reporter does
// not grow the count.
func (r *AccountRepo) AddReport(ctx context.Context, accountID, reporterID int64, reason enums.ReportReason) (int, error) {
	if accountID <= 0 || reporterID <= 0 {
		return 0, fmt.Errorf("invalid report payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO account_reports (account_id, reporter_id, reason, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (account_id, reporter_id) DO NOTHING
`, accountID, reporterID, reason); err != nil {
		return 0, fmt.Errorf("add account report: %w", err)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(DISTINCT reporter_id)
FROM account_reports
WHERE account_id = $1
`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count account reports: %w", err)
	}

	return count, nil
}
