package controller

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"dayzone_backend/internal/model"
	"dayzone_backend/internal/service"
	"dayzone_backend/pkg/config"
	"dayzone_backend/pkg/entitlement"
	"dayzone_backend/pkg/utils/jwt"
)

type SubscriptionController struct {
	db   *gorm.DB
	subs *service.SubscriptionService
	cfg  *config.Config
	now  func() time.Time
}

func NewSubscriptionController(db *gorm.DB, subs *service.SubscriptionService, cfg *config.Config) *SubscriptionController {
	stripe.Key = cfg.Stripe.SecretKey
	return &SubscriptionController{db: db, subs: subs, cfg: cfg, now: time.Now}
}

// WithNow fixes the controller clock. Intended for tests.
func (sc *SubscriptionController) WithNow(now func() time.Time) *SubscriptionController {
	sc.now = now
	return sc
}

type CheckoutInput struct {
	PriceInterval string `json:"priceInterval"`
}

// CreateCheckoutSession starts a Stripe Checkout Session for the
// authenticated user, creating the Stripe customer on first use.
func (sc *SubscriptionController) CreateCheckoutSession(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(CheckoutInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var priceID string
	switch input.PriceInterval {
	case "month":
		priceID = sc.cfg.Stripe.PriceIDMonthly
	case "year":
		priceID = sc.cfg.Stripe.PriceIDYearly
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "priceInterval must be \"month\" or \"year\"",
		})
	}
	if priceID == "" {
		log.Printf("checkout: missing Stripe price for interval %s", input.PriceInterval)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Billing is not configured",
		})
	}

	var user model.User
	if err := sc.db.First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	userIDStr := strconv.FormatUint(uint64(user.ID), 10)

	if user.StripeCustomerID == "" {
		customerParams := &stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(user.Name),
		}
		customerParams.AddMetadata("userId", userIDStr)

		stripeCustomer, err := customer.New(customerParams)
		if err != nil {
			log.Printf("checkout: could not create Stripe customer for user %d: %v", user.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not create Stripe customer",
			})
		}

		if err := sc.db.Model(&user).Update("stripe_customer_id", stripeCustomer.ID).Error; err != nil {
			log.Printf("checkout: could not persist customer id for user %d: %v", user.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not save Stripe customer",
			})
		}
		user.StripeCustomerID = stripeCustomer.ID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(user.StripeCustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		// The userId metadata on the subscription is what keys every
		// webhook event back to our user row.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": userIDStr},
		},
		ClientReferenceID: stripe.String(userIDStr),
		SuccessURL:        stripe.String(sc.cfg.Stripe.FrontendURL + "/billing/success"),
		CancelURL:         stripe.String(sc.cfg.Stripe.FrontendURL + "/billing/cancel"),
	}

	sess, err := session.New(params)
	if err != nil {
		log.Printf("checkout: session creation failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create checkout session",
		})
	}

	return c.JSON(fiber.Map{"url": sess.URL})
}

// HandleStripeWebhook verifies the event signature and hands the event to
// the subscription state machine. Rejected signatures cause no mutation.
func (sc *SubscriptionController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEvent(payload, signatureHeader, sc.cfg.Stripe.WebhookSecret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	log.Printf("Processing Stripe webhook event: %s", event.Type)

	if err := sc.subs.HandleEvent(c.UserContext(), event); err != nil {
		log.Printf("webhook %s failed: %v", event.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not process event",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// GetMySubscription exposes the caller's current tier, status and end date.
func (sc *SubscriptionController) GetMySubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var user model.User
	if err := sc.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscription",
		})
	}

	return c.JSON(fiber.Map{
		"tier":                  user.SubscriptionTier,
		"status":                user.SubscriptionStatus,
		"subscription_end_date": user.SubscriptionEndDate,
		"is_pro":                entitlement.IsPro(&user, sc.now()),
	})
}
