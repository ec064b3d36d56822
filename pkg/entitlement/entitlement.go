package entitlement

import (
	"time"

	"dayzone_backend/internal/model"
	"dayzone_backend/pkg/daterange"
)

// FreeHistoryDays is how far back a free-tier user can see deep-work history.
const FreeHistoryDays = 7

// IsPro reports whether the user currently holds pro entitlement: pro tier,
// an active or trialing subscription, and an end date that has not passed.
func IsPro(user *model.User, now time.Time) bool {
	if user == nil {
		return false
	}
	if user.SubscriptionTier != model.TierPro {
		return false
	}
	if user.SubscriptionStatus != model.StatusActive && user.SubscriptionStatus != model.StatusTrialing {
		return false
	}
	if user.SubscriptionEndDate != nil && !user.SubscriptionEndDate.After(now) {
		return false
	}
	return true
}

// ClampForTier narrows a resolved lower bound for non-pro callers to the
// free retention window. It never widens: pro callers get the bound back
// unchanged, and a requested bound already inside the window stays as is.
func ClampForTier(lowerBound string, isPro bool, today time.Time) (string, bool) {
	if isPro {
		return lowerBound, false
	}
	floor := daterange.Day(today.AddDate(0, 0, -FreeHistoryDays))
	if lowerBound < floor {
		return floor, true
	}
	return lowerBound, false
}
