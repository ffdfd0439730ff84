package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moonssword/dating-bot/internal/config"
	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrUnknownPlan = errors.New("unknown subscription plan")
)

type Store interface {
	Get(ctx context.Context, accountID int64) (model.Subscription, error)
	Activate(ctx context.Context, accountID int64, tier enums.SubscriptionTier, features model.Features, start time.Time, end *time.Time) error
}

// Service is the subscription gate. Every check reads the row fresh so
// a sweep downgrade or webhook upgrade takes effect on the next
// request, never a cached one.
type Service struct {
	store Store
	plans []config.PlanConfig
	now   func() time.Time
}

func NewService(store Store, plans []config.PlanConfig) *Service {
	return &Service{
		store: store,
		plans: plans,
		now:   time.Now,
	}
}

// FeaturesForTier is the canonical tier-to-feature mapping.
func FeaturesForTier(tier enums.SubscriptionTier) model.Features {
	switch tier {
	case enums.TierPlus:
		return model.Features{UnlimitedLikes: true, AdFree: true}
	case enums.TierPremium, enums.TierPromo:
		return model.Features{UnlimitedLikes: true, SeeWhoLikesYou: true, AdFree: true}
	default:
		return model.Features{}
	}
}

func (s *Service) Get(ctx context.Context, accountID int64) (model.Subscription, error) {
	if accountID <= 0 {
		return model.Subscription{}, ErrValidation
	}
	return s.store.Get(ctx, accountID)
}

// CanSeeWhoLikesYou gates the likes_you screen: the subscription must
// be currently active and carry the feature.
func (s *Service) CanSeeWhoLikesYou(ctx context.Context, accountID int64) (bool, error) {
	sub, err := s.Get(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("load subscription: %w", err)
	}
	if !sub.IsActive || !sub.Features.SeeWhoLikesYou {
		return false, nil
	}
	if sub.EndDate != nil && !sub.EndDate.After(s.now()) {
		return false, nil
	}
	return true, nil
}

func (s *Service) PlanByCode(code string) (config.PlanConfig, bool) {
	for _, plan := range s.plans {
		if plan.Code == code {
			return plan, true
		}
	}
	return config.PlanConfig{}, false
}

func (s *Service) Plans() []config.PlanConfig {
	return s.plans
}

// ActivatePlan applies a paid plan from its start time.
func (s *Service) ActivatePlan(ctx context.Context, accountID int64, planCode string) error {
	if accountID <= 0 {
		return ErrValidation
	}

	plan, ok := s.PlanByCode(planCode)
	if !ok {
		return ErrUnknownPlan
	}

	tier, ok := enums.ParseSubscriptionTier(plan.Tier)
	if !ok {
		return fmt.Errorf("plan %q has invalid tier %q: %w", plan.Code, plan.Tier, ErrUnknownPlan)
	}

	start := s.now()
	end := start.Add(plan.Duration)
	if err := s.store.Activate(ctx, accountID, tier, FeaturesForTier(tier), start, &end); err != nil {
		return fmt.Errorf("activate plan: %w", err)
	}
	return nil
}
