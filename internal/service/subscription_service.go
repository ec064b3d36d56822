package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/subscription"
	"gorm.io/gorm"

	"dayzone_backend/internal/model"
	"dayzone_backend/pkg/email"
)

// SubscriptionFetcher re-reads a subscription from the billing provider.
// Payment events re-derive state from the provider instead of trusting the
// invoice payload, which keeps out-of-order deliveries convergent.
type SubscriptionFetcher interface {
	FetchSubscription(id string) (*stripe.Subscription, error)
}

type stripeFetcher struct{}

func (stripeFetcher) FetchSubscription(id string) (*stripe.Subscription, error) {
	return subscription.Get(id, nil)
}

// SubscriptionService applies billing webhook events to the user's
// subscription fields. Every handler is idempotent: replaying an event
// converges to the same user row.
type SubscriptionService struct {
	db      *gorm.DB
	fetcher SubscriptionFetcher
	now     func() time.Time
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db, fetcher: stripeFetcher{}, now: time.Now}
}

// WithFetcher swaps the provider client. Intended for tests.
func (s *SubscriptionService) WithFetcher(f SubscriptionFetcher) *SubscriptionService {
	s.fetcher = f
	return s
}

// WithNow fixes the service clock. Intended for tests.
func (s *SubscriptionService) WithNow(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// MapStatus translates a provider status string to the internal status.
// The mapping is exhaustive; anything unrecognized lands on inactive.
func MapStatus(providerStatus string) model.SubscriptionStatus {
	switch providerStatus {
	case "active":
		return model.StatusActive
	case "trialing":
		return model.StatusTrialing
	case "past_due":
		return model.StatusPastDue
	case "canceled":
		return model.StatusCanceled
	case "unpaid":
		return model.StatusCanceled
	default:
		return model.StatusInactive
	}
}

// HandleEvent dispatches one verified webhook event. A nil return means the
// event was applied or deliberately dropped; errors are storage failures
// the caller should surface as 5xx so the provider retries.
func (s *SubscriptionService) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			log.Printf("webhook %s: bad subscription payload: %v", event.Type, err)
			return nil
		}
		return s.applySubscription(ctx, &sub, event.Type == "customer.subscription.created")

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			log.Printf("webhook %s: bad subscription payload: %v", event.Type, err)
			return nil
		}
		return s.applyDeleted(ctx, &sub)

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			log.Printf("webhook %s: bad invoice payload: %v", event.Type, err)
			return nil
		}
		if inv.Subscription == nil || inv.Subscription.ID == "" {
			log.Printf("webhook %s: invoice without subscription, dropped", event.Type)
			return nil
		}
		sub, err := s.fetcher.FetchSubscription(inv.Subscription.ID)
		if err != nil {
			return fmt.Errorf("refetch subscription %s: %w", inv.Subscription.ID, err)
		}
		return s.applySubscription(ctx, sub, false)

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			log.Printf("webhook %s: bad invoice payload: %v", event.Type, err)
			return nil
		}
		if inv.Subscription == nil || inv.Subscription.ID == "" {
			log.Printf("webhook %s: invoice without subscription, dropped", event.Type)
			return nil
		}
		res := s.db.WithContext(ctx).Model(&model.User{}).
			Where("stripe_subscription_id = ?", inv.Subscription.ID).
			Update("subscription_status", model.StatusPastDue)
		if res.Error != nil {
			return fmt.Errorf("mark past due: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			log.Printf("webhook %s: no user for subscription %s, dropped", event.Type, inv.Subscription.ID)
		}
		return nil

	default:
		// Unhandled event types are acknowledged and ignored.
		return nil
	}
}

// applySubscription upserts tier, status, provider refs and period end from
// the subscription object. Keyed by the userId metadata; events without it
// cannot be retried into correctness and are dropped.
func (s *SubscriptionService) applySubscription(ctx context.Context, sub *stripe.Subscription, created bool) error {
	userID, ok := userIDFromMetadata(sub.Metadata)
	if !ok {
		log.Printf("webhook: subscription %s has no userId metadata, dropped", sub.ID)
		return nil
	}

	endDate := time.Unix(sub.CurrentPeriodEnd, 0)
	updates := map[string]interface{}{
		"subscription_tier":      model.TierPro,
		"subscription_status":    MapStatus(string(sub.Status)),
		"stripe_subscription_id": sub.ID,
		"subscription_end_date":  endDate,
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		updates["stripe_customer_id"] = sub.Customer.ID
	}

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("apply subscription %s: %w", sub.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("webhook: subscription %s references unknown user %d, dropped", sub.ID, userID)
		return nil
	}

	if created && email.GlobalEmailService != nil {
		var user model.User
		if err := s.db.WithContext(ctx).First(&user, userID).Error; err == nil {
			if err := email.GlobalEmailService.SendSubscriptionStartedEmail(user.Email, user.Name, endDate); err != nil {
				log.Printf("Could not send subscription email: %v", err)
			}
		}
	}

	return nil
}

func (s *SubscriptionService) applyDeleted(ctx context.Context, sub *stripe.Subscription) error {
	userID, ok := userIDFromMetadata(sub.Metadata)
	if !ok {
		log.Printf("webhook: subscription %s has no userId metadata, dropped", sub.ID)
		return nil
	}

	endDate := s.now()
	if sub.EndedAt > 0 {
		endDate = time.Unix(sub.EndedAt, 0)
	}

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"subscription_tier":     model.TierFree,
		"subscription_status":   model.StatusCanceled,
		"subscription_end_date": endDate,
	})
	if res.Error != nil {
		return fmt.Errorf("apply subscription deletion %s: %w", sub.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("webhook: subscription %s references unknown user %d, dropped", sub.ID, userID)
		return nil
	}

	if email.GlobalEmailService != nil {
		var user model.User
		if err := s.db.WithContext(ctx).First(&user, userID).Error; err == nil {
			if err := email.GlobalEmailService.SendSubscriptionCancelledEmail(user.Email, user.Name, endDate); err != nil {
				log.Printf("Could not send cancellation email: %v", err)
			}
		}
	}

	return nil
}

func userIDFromMetadata(metadata map[string]string) (uint, bool) {
	raw, ok := metadata["userId"]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
