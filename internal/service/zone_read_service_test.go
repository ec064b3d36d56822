package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
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

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.DailyPlan{},
		&model.DeepWorkItem{},
		&model.QuickWin{},
		&model.MakeItHappenTask{},
		&model.RechargeZone{},
		&model.LittleJoy{},
		&model.CoreMemory{},
		&model.Project{},
		&model.ProjectUpdate{},
	))

	return db
}

func frozen(date string) func() time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func createPlan(t *testing.T, db *gorm.DB, userID uint, date string) *model.DailyPlan {
	t.Helper()
	plan := model.DailyPlan{UserID: userID, PlanDate: date}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

func createUser(t *testing.T, db *gorm.DB, tier model.SubscriptionTier, status model.SubscriptionStatus) *model.User {
	t.Helper()
	user := model.User{
		Email:              uuid.NewString() + "@example.com",
		Password:           "x",
		SubscriptionTier:   tier,
		SubscriptionStatus: status,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestDeepWorkClamp(t *testing.T) {
	// today = 2025-06-15; last30 resolves to 2025-05-16, the free floor
	// is 2025-06-08.
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	freeUser := createUser(t, db, model.TierFree, model.StatusInactive)
	oldPlan := createPlan(t, db, freeUser.ID, "2025-05-20")
	newPlan := createPlan(t, db, freeUser.ID, "2025-06-10")
	require.NoError(t, db.Create(&model.DeepWorkItem{PlanID: oldPlan.ID, Title: "Old item"}).Error)
	require.NoError(t, db.Create(&model.DeepWorkItem{PlanID: newPlan.ID, Title: "Recent item"}).Error)

	t.Run("free user only sees the last seven days", func(t *testing.T) {
		result, err := svc.DeepWork(ctx, freeUser.ID, "last30")
		require.NoError(t, err)
		assert.False(t, result.IsPro)
		assert.True(t, result.LimitApplied)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "Recent item", result.Items[0].Title)
	})

	t.Run("pro user sees the full requested range", func(t *testing.T) {
		proUser := createUser(t, db, model.TierPro, model.StatusActive)
		oldPro := createPlan(t, db, proUser.ID, "2025-05-20")
		require.NoError(t, db.Create(&model.DeepWorkItem{PlanID: oldPro.ID, Title: "Pro old item"}).Error)

		result, err := svc.DeepWork(ctx, proUser.ID, "last30")
		require.NoError(t, err)
		assert.True(t, result.IsPro)
		assert.False(t, result.LimitApplied)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "Pro old item", result.Items[0].Title)
	})

	t.Run("unknown user is a not found error", func(t *testing.T) {
		_, err := svc.DeepWork(ctx, 9999, "last30")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestDeepWorkStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	user := createUser(t, db, model.TierPro, model.StatusActive)
	plan := createPlan(t, db, user.ID, "2025-06-15")
	require.NoError(t, db.Create(&model.DeepWorkItem{PlanID: plan.ID, Title: "A", EstimateMinutes: 90, Completed: true}).Error)
	require.NoError(t, db.Create(&model.DeepWorkItem{PlanID: plan.ID, Title: "B", EstimateMinutes: 45, Completed: true}).Error)
	require.NoError(t, db.Create(&model.DeepWorkItem{PlanID: plan.ID, Title: "C", EstimateMinutes: 60}).Error)

	result, err := svc.DeepWork(ctx, user.ID, "thisWeek")
	require.NoError(t, err)

	stats := result.Stats
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, *stats.Completed)
	assert.Equal(t, 1, *stats.Incomplete)
	assert.Equal(t, 67, *stats.CompletionRate)
	// 90 + 45 completed minutes = 2.25h, rounded to one decimal.
	assert.Equal(t, 2.3, *stats.TotalHours)
}

func TestCompletionRateRounding(t *testing.T) {
	assert.Equal(t, 0, *completionStats(0, 0).CompletionRate)
	assert.Equal(t, 33, *completionStats(3, 1).CompletionRate)
	assert.Equal(t, 67, *completionStats(3, 2).CompletionRate)
	assert.Equal(t, 100, *completionStats(4, 4).CompletionRate)
}

func TestQuickWinsGrouping(t *testing.T) {
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	user := createUser(t, db, model.TierFree, model.StatusInactive)
	day1 := createPlan(t, db, user.ID, "2025-06-14")
	day2 := createPlan(t, db, user.ID, "2025-06-15")
	require.NoError(t, db.Create(&model.QuickWin{PlanID: day1.ID, Title: "One", Completed: true}).Error)
	require.NoError(t, db.Create(&model.QuickWin{PlanID: day1.ID, Title: "Two"}).Error)
	require.NoError(t, db.Create(&model.QuickWin{PlanID: day2.ID, Title: "Three"}).Error)

	result, err := svc.QuickWins(ctx, user.ID, "thisMonth")
	require.NoError(t, err)

	assert.Len(t, result.Items, 3)
	require.Len(t, result.Grouped, 2)
	assert.Len(t, result.Grouped["2025-06-14"], 2)
	assert.Len(t, result.Grouped["2025-06-15"], 1)
	assert.Equal(t, 33, *result.Stats.CompletionRate)

	// Newest plan date first.
	assert.Equal(t, "Three", result.Items[0].Title)
}

func TestZoneReadsDoNotLeakAcrossUsers(t *testing.T) {
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	owner := createUser(t, db, model.TierFree, model.StatusInactive)
	other := createUser(t, db, model.TierFree, model.StatusInactive)
	plan := createPlan(t, db, owner.ID, "2025-06-15")
	require.NoError(t, db.Create(&model.LittleJoy{PlanID: plan.ID, Description: "Private joy"}).Error)

	result, err := svc.LittleJoys(ctx, other.ID, "thisWeek")
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestReflections(t *testing.T) {
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	user := createUser(t, db, model.TierFree, model.StatusInactive)
	withText := createPlan(t, db, user.ID, "2025-06-14")
	require.NoError(t, db.Model(withText).Update("reflection", "A good day").Error)
	createPlan(t, db, user.ID, "2025-06-15") // empty plan, excluded

	result, err := svc.Reflections(ctx, user.ID, "thisMonth")
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "A good day", result.Items[0].Reflection)
	assert.Equal(t, 1, result.Stats.Total)
	assert.Nil(t, result.Stats.CompletionRate)
}

func TestCoreMemories(t *testing.T) {
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	user := createUser(t, db, model.TierFree, model.StatusInactive)
	require.NoError(t, db.Create(&model.CoreMemory{UserID: user.ID, MemoryDate: "2025-06-10", Title: "Recent"}).Error)
	require.NoError(t, db.Create(&model.CoreMemory{UserID: user.ID, MemoryDate: "2025-01-01", Title: "Far back"}).Error)

	result, err := svc.CoreMemories(ctx, user.ID, "last30")
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Recent", result.Items[0].Title)
	assert.Len(t, result.Grouped["2025-06-10"], 1)
}

func TestProgressLogGroupsByProject(t *testing.T) {
	db := newTestDB(t)
	svc := NewZoneReadService(db).WithNow(frozen("2025-06-15"))
	ctx := context.Background()

	user := createUser(t, db, model.TierFree, model.StatusInactive)
	alpha := model.Project{UserID: user.ID, Name: "Alpha", Slug: "alpha"}
	beta := model.Project{UserID: user.ID, Name: "Beta", Slug: "beta"}
	require.NoError(t, db.Create(&alpha).Error)
	require.NoError(t, db.Create(&beta).Error)

	require.NoError(t, db.Create(&model.ProjectUpdate{ProjectID: alpha.ID, Content: "Kickoff done", Completed: true}).Error)
	require.NoError(t, db.Create(&model.ProjectUpdate{ProjectID: alpha.ID, Content: "Design in review"}).Error)
	require.NoError(t, db.Create(&model.ProjectUpdate{ProjectID: beta.ID, Content: "Backlog groomed"}).Error)

	result, err := svc.ProgressLog(ctx, user.ID, "last30")
	require.NoError(t, err)

	assert.Len(t, result.Items, 3)
	require.Len(t, result.Grouped, 2)

	alphaKey := ""
	for key, group := range result.Grouped {
		if group.ProjectName == "Alpha" {
			alphaKey = key
		}
	}
	require.NotEmpty(t, alphaKey)
	assert.Equal(t, 2, result.Grouped[alphaKey].Count)
	assert.Equal(t, "alpha", result.Grouped[alphaKey].ProjectSlug)
	assert.Equal(t, 33, *result.Stats.CompletionRate)
}
