package enums

import "strings"

type SubscriptionTier string

const (
	TierBasic   SubscriptionTier = "basic"
	TierPlus    SubscriptionTier = "plus"
	TierPremium SubscriptionTier = "premium"
	TierPromo   SubscriptionTier = "promo"
)

func ParseSubscriptionTier(raw string) (SubscriptionTier, bool) {
	switch SubscriptionTier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierBasic:
		return TierBasic, true
	case TierPlus:
		return TierPlus, true
	case TierPremium:
		return TierPremium, true
	case TierPromo:
		return TierPromo, true
	default:
		return "", false
	}
}
