package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"dayzone_backend/internal/model"
	"dayzone_backend/pkg/daterange"
	"dayzone_backend/pkg/entitlement"
)

var ErrUserNotFound = errors.New("user not found")

// ZoneStats is the fixed-shape summary attached to every zone listing.
// Completion fields are omitted for zones without a completed flag.
type ZoneStats struct {
	Total          int      `json:"total"`
	Completed      *int     `json:"completed,omitempty"`
	Incomplete     *int     `json:"incomplete,omitempty"`
	CompletionRate *int     `json:"completion_rate,omitempty"`
	TotalHours     *float64 `json:"total_hours,omitempty"`
}

// ListResult is the shared response shape of the zone read endpoints.
type ListResult[T any] struct {
	Items   []T            `json:"items"`
	Grouped map[string][]T `json:"groupedByKey"`
	Stats   ZoneStats      `json:"stats"`
}

// ZoneReadService serves the seven sibling zone read endpoints through one
// fetch-group-summarize path parameterized per zone.
type ZoneReadService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewZoneReadService(db *gorm.DB) *ZoneReadService {
	return &ZoneReadService{db: db, now: time.Now}
}

// WithNow fixes the service clock. Intended for tests.
func (s *ZoneReadService) WithNow(now func() time.Time) *ZoneReadService {
	s.now = now
	return s
}

// zoneSpec describes how one zone reads, groups and summarizes its rows.
type zoneSpec[T any] struct {
	fetch    func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]T, error)
	groupKey func(T) string
	stats    func([]T) ZoneStats
}

func listZone[T any](ctx context.Context, db *gorm.DB, spec zoneSpec[T], userID uint, from string) (*ListResult[T], error) {
	items, err := spec.fetch(ctx, db, userID, from)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]T)
	for _, item := range items {
		key := spec.groupKey(item)
		grouped[key] = append(grouped[key], item)
	}

	return &ListResult[T]{
		Items:   items,
		Grouped: grouped,
		Stats:   spec.stats(items),
	}, nil
}

// completionStats computes total/completed/incomplete and a rounded
// percentage. The rate is 0 when there are no items.
func completionStats(total, completed int) ZoneStats {
	incomplete := total - completed
	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return ZoneStats{
		Total:          total,
		Completed:      &completed,
		Incomplete:     &incomplete,
		CompletionRate: &rate,
	}
}

func countStats(total int) ZoneStats {
	return ZoneStats{Total: total}
}

// --- deep work (the one entitlement-gated zone) ---

type DeepWorkRow struct {
	model.DeepWorkItem
	PlanDate string `json:"plan_date"`
}

type DeepWorkResult struct {
	ListResult[DeepWorkRow]
	IsPro        bool `json:"isPro"`
	LimitApplied bool `json:"limitApplied"`
}

func (s *ZoneReadService) DeepWork(ctx context.Context, userID uint, filter string) (*DeepWorkResult, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	from := daterange.Resolve(filter, now)
	isPro := entitlement.IsPro(&user, now)
	from, limited := entitlement.ClampForTier(from, isPro, now)

	spec := zoneSpec[DeepWorkRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]DeepWorkRow, error) {
			var rows []DeepWorkRow
			err := db.WithContext(ctx).Model(&model.DeepWorkItem{}).
				Select("deep_work_items.*, daily_plans.plan_date").
				Joins("JOIN daily_plans ON daily_plans.id = deep_work_items.plan_id").
				Where("daily_plans.user_id = ? AND daily_plans.plan_date >= ?", userID, from).
				Order("daily_plans.plan_date DESC, deep_work_items.created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list deep work items: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r DeepWorkRow) string { return daterange.Normalize(r.PlanDate) },
		stats:    deepWorkStats,
	}

	result, err := listZone(ctx, s.db, spec, userID, from)
	if err != nil {
		return nil, err
	}
	return &DeepWorkResult{ListResult: *result, IsPro: isPro, LimitApplied: limited}, nil
}

// deepWorkStats adds total focused hours across completed items, derived
// from per-item minute estimates and rounded to one decimal place.
func deepWorkStats(rows []DeepWorkRow) ZoneStats {
	completed := 0
	minutes := 0
	for _, r := range rows {
		if r.Completed {
			completed++
			minutes += r.EstimateMinutes
		}
	}
	stats := completionStats(len(rows), completed)
	hours := math.Round(float64(minutes)/60*10) / 10
	stats.TotalHours = &hours
	return stats
}

// --- date-scoped zones sharing the plan join ---

type QuickWinRow struct {
	model.QuickWin
	PlanDate string `json:"plan_date"`
}

func (s *ZoneReadService) QuickWins(ctx context.Context, userID uint, filter string) (*ListResult[QuickWinRow], error) {
	from := daterange.Resolve(filter, s.now())
	return listZone(ctx, s.db, zoneSpec[QuickWinRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]QuickWinRow, error) {
			var rows []QuickWinRow
			err := db.WithContext(ctx).Model(&model.QuickWin{}).
				Select("quick_wins.*, daily_plans.plan_date").
				Joins("JOIN daily_plans ON daily_plans.id = quick_wins.plan_id").
				Where("daily_plans.user_id = ? AND daily_plans.plan_date >= ?", userID, from).
				Order("daily_plans.plan_date DESC, quick_wins.created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list quick wins: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r QuickWinRow) string { return daterange.Normalize(r.PlanDate) },
		stats: func(rows []QuickWinRow) ZoneStats {
			completed := 0
			for _, r := range rows {
				if r.Completed {
					completed++
				}
			}
			return completionStats(len(rows), completed)
		},
	}, userID, from)
}

type MakeItHappenRow struct {
	model.MakeItHappenTask
	PlanDate string `json:"plan_date"`
}

func (s *ZoneReadService) MakeItHappen(ctx context.Context, userID uint, filter string) (*ListResult[MakeItHappenRow], error) {
	from := daterange.Resolve(filter, s.now())
	return listZone(ctx, s.db, zoneSpec[MakeItHappenRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]MakeItHappenRow, error) {
			var rows []MakeItHappenRow
			err := db.WithContext(ctx).Model(&model.MakeItHappenTask{}).
				Select("make_it_happen_tasks.*, daily_plans.plan_date").
				Joins("JOIN daily_plans ON daily_plans.id = make_it_happen_tasks.plan_id").
				Where("daily_plans.user_id = ? AND daily_plans.plan_date >= ?", userID, from).
				Order("daily_plans.plan_date DESC, make_it_happen_tasks.created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list make it happen tasks: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r MakeItHappenRow) string { return daterange.Normalize(r.PlanDate) },
		stats: func(rows []MakeItHappenRow) ZoneStats {
			completed := 0
			for _, r := range rows {
				if r.Completed {
					completed++
				}
			}
			return completionStats(len(rows), completed)
		},
	}, userID, from)
}

type RechargeRow struct {
	model.RechargeZone
	PlanDate string `json:"plan_date"`
}

func (s *ZoneReadService) Recharge(ctx context.Context, userID uint, filter string) (*ListResult[RechargeRow], error) {
	from := daterange.Resolve(filter, s.now())
	return listZone(ctx, s.db, zoneSpec[RechargeRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]RechargeRow, error) {
			var rows []RechargeRow
			err := db.WithContext(ctx).Model(&model.RechargeZone{}).
				Select("recharge_zones.*, daily_plans.plan_date").
				Joins("JOIN daily_plans ON daily_plans.id = recharge_zones.plan_id").
				Where("daily_plans.user_id = ? AND daily_plans.plan_date >= ?", userID, from).
				Order("daily_plans.plan_date DESC, recharge_zones.created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list recharge zones: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r RechargeRow) string { return daterange.Normalize(r.PlanDate) },
		stats: func(rows []RechargeRow) ZoneStats {
			completed := 0
			for _, r := range rows {
				if r.Completed {
					completed++
				}
			}
			return completionStats(len(rows), completed)
		},
	}, userID, from)
}

type LittleJoyRow struct {
	model.LittleJoy
	PlanDate string `json:"plan_date"`
}

func (s *ZoneReadService) LittleJoys(ctx context.Context, userID uint, filter string) (*ListResult[LittleJoyRow], error) {
	from := daterange.Resolve(filter, s.now())
	return listZone(ctx, s.db, zoneSpec[LittleJoyRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]LittleJoyRow, error) {
			var rows []LittleJoyRow
			err := db.WithContext(ctx).Model(&model.LittleJoy{}).
				Select("little_joys.*, daily_plans.plan_date").
				Joins("JOIN daily_plans ON daily_plans.id = little_joys.plan_id").
				Where("daily_plans.user_id = ? AND daily_plans.plan_date >= ?", userID, from).
				Order("daily_plans.plan_date DESC, little_joys.created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list little joys: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r LittleJoyRow) string { return daterange.Normalize(r.PlanDate) },
		stats:    func(rows []LittleJoyRow) ZoneStats { return countStats(len(rows)) },
	}, userID, from)
}

// --- reflections, read straight off the plan scalars ---

type ReflectionRow struct {
	ID            uint   `json:"id"`
	PlanDate      string `json:"plan_date"`
	Reflection    string `json:"reflection"`
	FocusTomorrow string `json:"focus_tomorrow"`
}

func (s *ZoneReadService) Reflections(ctx context.Context, userID uint, filter string) (*ListResult[ReflectionRow], error) {
	from := daterange.Resolve(filter, s.now())
	return listZone(ctx, s.db, zoneSpec[ReflectionRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]ReflectionRow, error) {
			var rows []ReflectionRow
			err := db.WithContext(ctx).Model(&model.DailyPlan{}).
				Select("id, plan_date, reflection, focus_tomorrow").
				Where("user_id = ? AND plan_date >= ?", userID, from).
				Where("reflection <> '' OR focus_tomorrow <> ''").
				Order("plan_date DESC, created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list reflections: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r ReflectionRow) string { return daterange.Normalize(r.PlanDate) },
		stats:    func(rows []ReflectionRow) ZoneStats { return countStats(len(rows)) },
	}, userID, from)
}

// --- core memories, owned by the user directly ---

type CoreMemoryRow struct {
	model.CoreMemory
}

func (s *ZoneReadService) CoreMemories(ctx context.Context, userID uint, filter string) (*ListResult[CoreMemoryRow], error) {
	from := daterange.Resolve(filter, s.now())
	return listZone(ctx, s.db, zoneSpec[CoreMemoryRow]{
		fetch: func(ctx context.Context, db *gorm.DB, userID uint, from string) ([]CoreMemoryRow, error) {
			var rows []CoreMemoryRow
			err := db.WithContext(ctx).Model(&model.CoreMemory{}).
				Where("user_id = ? AND memory_date >= ?", userID, from).
				Order("memory_date DESC, created_at DESC").
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("list core memories: %w", err)
			}
			return rows, nil
		},
		groupKey: func(r CoreMemoryRow) string { return daterange.Normalize(r.MemoryDate) },
		stats:    func(rows []CoreMemoryRow) ZoneStats { return countStats(len(rows)) },
	}, userID, from)
}

// --- progress log, grouped by owning project instead of date ---

type ProgressRow struct {
	model.ProjectUpdate
	ProjectName string `json:"project_name"`
	ProjectSlug string `json:"project_slug"`
}

type ProjectGroup struct {
	ProjectName string        `json:"project_name"`
	ProjectSlug string        `json:"project_slug"`
	Count       int           `json:"count"`
	Items       []ProgressRow `json:"items"`
}

type ProgressResult struct {
	Items   []ProgressRow           `json:"items"`
	Grouped map[string]ProjectGroup `json:"groupedByKey"`
	Stats   ZoneStats               `json:"stats"`
}

func (s *ZoneReadService) ProgressLog(ctx context.Context, userID uint, filter string) (*ProgressResult, error) {
	from := daterange.Resolve(filter, s.now())
	fromTime, err := time.Parse(daterange.Layout, from)
	if err != nil {
		return nil, fmt.Errorf("parse lower bound: %w", err)
	}

	var rows []ProgressRow
	err = s.db.WithContext(ctx).Model(&model.ProjectUpdate{}).
		Select("project_updates.*, projects.name AS project_name, projects.slug AS project_slug").
		Joins("JOIN projects ON projects.id = project_updates.project_id").
		Where("projects.user_id = ? AND project_updates.created_at >= ?", userID, fromTime).
		Order("project_updates.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list project updates: %w", err)
	}

	grouped := make(map[string]ProjectGroup)
	completed := 0
	for _, row := range rows {
		if row.Completed {
			completed++
		}
		key := fmt.Sprintf("%d", row.ProjectID)
		group := grouped[key]
		group.ProjectName = row.ProjectName
		group.ProjectSlug = row.ProjectSlug
		group.Count++
		group.Items = append(group.Items, row)
		grouped[key] = group
	}

	return &ProgressResult{
		Items:   rows,
		Grouped: grouped,
		Stats:   completionStats(len(rows), completed),
	}, nil
}
