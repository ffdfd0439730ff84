package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type SubscriptionStore interface {
	DowngradeExpired(ctx context.Context, now time.Time) ([]int64, error)
}

// AccountNotifier delivers the downgrade notice. Kept minimal so the
// job does not depend on the transport package.
type AccountNotifier interface {
	NotifySubscriptionExpired(ctx context.Context, accountID int64) error
}

// Job downgrades subscriptions whose end date has passed and tells the
// affected accounts they are back on the free plan.
type Job struct {
	subscriptions SubscriptionStore
	notifier      AccountNotifier
	interval      time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func New(subscriptions SubscriptionStore, notifier AccountNotifier, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		subscriptions: subscriptions,
		notifier:      notifier,
		interval:      interval,
		now:           time.Now,
		logger:        logger,
	}
}

// Run sweeps once.
func (j *Job) Run(ctx context.Context) error {
	downgraded, err := j.subscriptions.DowngradeExpired(ctx, j.now())
	if err != nil {
		return fmt.Errorf("downgrade expired subscriptions: %w", err)
	}
	if len(downgraded) == 0 {
		return nil
	}

	for _, accountID := range downgraded {
		if j.notifier == nil {
			continue
		}
		if err := j.notifier.NotifySubscriptionExpired(ctx, accountID); err != nil {
			j.logger.Warn("notify downgraded account failed",
				zap.Int64("account_id", accountID), zap.Error(err))
		}
	}

	j.logger.Info("subscription sweep completed", zap.Int("downgraded", len(downgraded)))
	return nil
}

// Loop runs the sweep on a ticker until the context ends.
func (j *Job) Loop(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("subscription sweep failed", zap.Error(err))
			}
		}
	}
}
