package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moonssword/dating-bot/internal/config"
	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
)

type stubStore struct {
	sub       model.Subscription
	activated []struct {
		accountID int64
		tier      enums.SubscriptionTier
		features  model.Features
		end       *time.Time
	}
}

func (s *stubStore) Get(_ context.Context, accountID int64) (model.Subscription, error) {
	sub := s.sub
	sub.AccountID = accountID
	return sub, nil
}

func (s *stubStore) Activate(_ context.Context, accountID int64, tier enums.SubscriptionTier, features model.Features, _ time.Time, end *time.Time) error {
	s.activated = append(s.activated, struct {
		accountID int64
		tier      enums.SubscriptionTier
		features  model.Features
		end       *time.Time
	}{accountID, tier, features, end})
	return nil
}

var testPlans = []config.PlanConfig{
	{Code: "premium_month", Tier: "premium", Duration: 30 * 24 * time.Hour, Amount: 499},
	{Code: "plus_week", Tier: "plus", Duration: 7 * 24 * time.Hour, Amount: 149},
}

func TestCanSeeWhoLikesYou(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	cases := []struct {
		name string
		sub  model.Subscription
		want bool
	}{
		{"basic", model.Subscription{Tier: enums.TierBasic}, false},
		{"premium active", model.Subscription{
			Tier: enums.TierPremium, IsActive: true, EndDate: &future,
			Features: model.Features{SeeWhoLikesYou: true},
		}, true},
		{"premium expired but not swept", model.Subscription{
			Tier: enums.TierPremium, IsActive: true, EndDate: &past,
			Features: model.Features{SeeWhoLikesYou: true},
		}, false},
		{"plus active", model.Subscription{
			Tier: enums.TierPlus, IsActive: true, EndDate: &future,
			Features: model.Features{UnlimitedLikes: true, AdFree: true},
		}, false},
	}

	for _, tc := range cases {
		svc := NewService(&stubStore{sub: tc.sub}, testPlans)
		got, err := svc.CanSeeWhoLikesYou(context.Background(), 1)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestActivatePlan(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, testPlans)

	if err := svc.ActivatePlan(context.Background(), 7, "premium_month"); err != nil {
		t.Fatalf("activate plan: %v", err)
	}
	if len(store.activated) != 1 {
		t.Fatalf("unexpected activations: got %d want 1", len(store.activated))
	}

	act := store.activated[0]
	if act.tier != enums.TierPremium {
		t.Fatalf("unexpected tier: got %q", act.tier)
	}
	if !act.features.SeeWhoLikesYou || !act.features.UnlimitedLikes || !act.features.AdFree {
		t.Fatalf("unexpected features: %+v", act.features)
	}
	if act.end == nil {
		t.Fatalf("expected end date")
	}
}

func TestActivateUnknownPlan(t *testing.T) {
	svc := NewService(&stubStore{}, testPlans)
	err := svc.ActivatePlan(context.Background(), 7, "gold_forever")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrUnknownPlan)
	}
}
