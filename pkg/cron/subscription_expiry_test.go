package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dayzone_backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}))

	return db
}

func timePtr(t time.Time) *time.Time { return &t }

func createSubscriber(t *testing.T, db *gorm.DB, email string, tier model.SubscriptionTier, status model.SubscriptionStatus, end *time.Time) model.User {
	t.Helper()
	user := model.User{
		Name:                "Sweep Test",
		Email:               email,
		Password:            "x",
		SubscriptionTier:    tier,
		SubscriptionStatus:  status,
		SubscriptionEndDate: end,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestDowngradeExpiredSubscriptions(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	expired := createSubscriber(t, db, "expired@example.com",
		model.TierPro, model.StatusActive, timePtr(now.AddDate(0, 0, -3)))
	expiredPastDue := createSubscriber(t, db, "pastdue@example.com",
		model.TierPro, model.StatusPastDue, timePtr(now.AddDate(0, 0, -10)))
	current := createSubscriber(t, db, "current@example.com",
		model.TierPro, model.StatusActive, timePtr(now.AddDate(0, 1, 0)))
	free := createSubscriber(t, db, "free@example.com",
		model.TierFree, model.StatusInactive, nil)
	alreadyCanceled := createSubscriber(t, db, "canceled@example.com",
		model.TierPro, model.StatusCanceled, timePtr(now.AddDate(0, 0, -3)))

	downgradeExpiredSubscriptions(db, now)

	reload := func(id uint) model.User {
		var u model.User
		require.NoError(t, db.First(&u, id).Error)
		return u
	}

	got := reload(expired.ID)
	assert.Equal(t, model.TierFree, got.SubscriptionTier)
	assert.Equal(t, model.StatusInactive, got.SubscriptionStatus)

	got = reload(expiredPastDue.ID)
	assert.Equal(t, model.TierFree, got.SubscriptionTier)
	assert.Equal(t, model.StatusInactive, got.SubscriptionStatus)

	got = reload(current.ID)
	assert.Equal(t, model.TierPro, got.SubscriptionTier)
	assert.Equal(t, model.StatusActive, got.SubscriptionStatus)

	got = reload(free.ID)
	assert.Equal(t, model.TierFree, got.SubscriptionTier)

	// An already-canceled row is terminal state for the webhook path and is
	// left alone by the sweep.
	got = reload(alreadyCanceled.ID)
	assert.Equal(t, model.TierPro, got.SubscriptionTier)
	assert.Equal(t, model.StatusCanceled, got.SubscriptionStatus)
}

func TestDowngradeExpiredSubscriptionsNoEndDate(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	openEnded := createSubscriber(t, db, "open@example.com",
		model.TierPro, model.StatusActive, nil)

	downgradeExpiredSubscriptions(db, now)

	var got model.User
	require.NoError(t, db.First(&got, openEnded.ID).Error)
	assert.Equal(t, model.TierPro, got.SubscriptionTier)
	assert.Equal(t, model.StatusActive, got.SubscriptionStatus)
}
