package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"dayzone_backend/internal/model"
)

// InitSubscriptionExpiryCron schedules a daily sweep that downgrades pro
// users whose subscription end date passed without a deletion event ever
// arriving (missed or dropped webhooks).
func InitSubscriptionExpiryCron(db *gorm.DB) {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		downgradeExpiredSubscriptions(db, time.Now())
	})

	if err != nil {
		log.Printf("Could not initialize subscription expiry cron: %v", err)
		return
	}

	c.Start()
}

func downgradeExpiredSubscriptions(db *gorm.DB, now time.Time) {
	log.Println("Checking for expired subscriptions...")

	res := db.Model(&model.User{}).
		Where("subscription_tier = ?", model.TierPro).
		Where("subscription_end_date IS NOT NULL AND subscription_end_date < ?", now).
		Where("subscription_status IN ?", []model.SubscriptionStatus{
			model.StatusActive,
			model.StatusTrialing,
			model.StatusPastDue,
		}).
		Updates(map[string]interface{}{
			"subscription_tier":   model.TierFree,
			"subscription_status": model.StatusInactive,
		})

	if res.Error != nil {
		log.Printf("Error downgrading expired subscriptions: %v", res.Error)
		return
	}

	if res.RowsAffected > 0 {
		log.Printf("Downgraded %d expired subscriptions", res.RowsAffected)
	}
}
