package model

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusInactive SubscriptionStatus = "inactive"
)

type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
	Name     string `json:"name"`

	// Billing state. Tier and status are written only by the webhook
	// handlers; checkout-session creation may set StripeCustomerID.
	SubscriptionTier     SubscriptionTier   `json:"subscription_tier" gorm:"default:'free'"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status" gorm:"default:'inactive'"`
	StripeCustomerID     string             `json:"-"`
	StripeSubscriptionID string             `json:"-"`
	SubscriptionEndDate  *time.Time         `json:"subscription_end_date"`

	Plans    []DailyPlan `json:"-"`
	Projects []Project   `json:"-"`
}
