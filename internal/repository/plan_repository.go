package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dayzone_backend/internal/model"
	"dayzone_backend/pkg/daterange"
)

// ValidationError marks caller mistakes that map to a 4xx response. The
// message is safe to return verbatim.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// PlanRepository owns the DailyPlan aggregate and its zone child rows.
type PlanRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db, now: time.Now}
}

// WithNow fixes the repository clock. Intended for tests.
func (r *PlanRepository) WithNow(now func() time.Time) *PlanRepository {
	r.now = now
	return r
}

// GetOrCreate returns the plan for (userID, date), creating an empty one on
// first access. The insert is ON CONFLICT DO NOTHING against the composite
// unique index, so a concurrent first access observes the winner's row.
func (r *PlanRepository) GetOrCreate(ctx context.Context, userID uint, date string) (*model.DailyPlan, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	plan := model.DailyPlan{UserID: userID, PlanDate: date}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "plan_date"}},
			DoNothing: true,
		}).
		Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	return r.fetch(ctx, r.db, userID, date)
}

// PlanPatch is a sparse update: nil fields are left untouched.
type PlanPatch struct {
	Reflection    *string `json:"reflection"`
	FocusTomorrow *string `json:"focus_tomorrow"`

	DeepWork     *DeepWorkMutations     `json:"deep_work"`
	QuickWins    *QuickWinMutations     `json:"quick_wins"`
	MakeItHappen *MakeItHappenMutations `json:"make_it_happen"`
	Recharge     *RechargeMutations     `json:"recharge"`
	LittleJoys   *LittleJoyMutations    `json:"little_joys"`
}

type DeepWorkMutations struct {
	Add    []DeepWorkInput  `json:"add"`
	Update []DeepWorkUpdate `json:"update"`
	Delete []uint           `json:"delete"`
}

type DeepWorkInput struct {
	Title           string `json:"title"`
	Notes           string `json:"notes"`
	EstimateMinutes int    `json:"estimate_minutes"`
}

type DeepWorkUpdate struct {
	ID              uint    `json:"id"`
	Title           *string `json:"title"`
	Notes           *string `json:"notes"`
	EstimateMinutes *int    `json:"estimate_minutes"`
	Completed       *bool   `json:"completed"`
}

type QuickWinMutations struct {
	Add    []QuickWinInput  `json:"add"`
	Update []QuickWinUpdate `json:"update"`
	Delete []uint           `json:"delete"`
}

type QuickWinInput struct {
	Title string `json:"title"`
}

type QuickWinUpdate struct {
	ID        uint    `json:"id"`
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type MakeItHappenMutations struct {
	Add    []MakeItHappenInput  `json:"add"`
	Update []MakeItHappenUpdate `json:"update"`
	Delete []uint               `json:"delete"`
}

type MakeItHappenInput struct {
	Title string `json:"title"`
	Why   string `json:"why"`
}

type MakeItHappenUpdate struct {
	ID        uint    `json:"id"`
	Title     *string `json:"title"`
	Why       *string `json:"why"`
	Completed *bool   `json:"completed"`
}

type RechargeMutations struct {
	Add    []RechargeInput  `json:"add"`
	Update []RechargeUpdate `json:"update"`
	Delete []uint           `json:"delete"`
}

type RechargeInput struct {
	Activity string `json:"activity"`
}

type RechargeUpdate struct {
	ID        uint    `json:"id"`
	Activity  *string `json:"activity"`
	Completed *bool   `json:"completed"`
}

type LittleJoyMutations struct {
	Add    []LittleJoyInput  `json:"add"`
	Update []LittleJoyUpdate `json:"update"`
	Delete []uint            `json:"delete"`
}

type LittleJoyInput struct {
	Description string `json:"description"`
}

type LittleJoyUpdate struct {
	ID          uint    `json:"id"`
	Description *string `json:"description"`
}

// Update applies a sparse patch to the plan for (userID, date) as a single
// transaction: either every scalar write and child mutation lands, or none.
// Dates older than one month (compared as YYYY-MM-DD strings) are refused.
func (r *PlanRepository) Update(ctx context.Context, userID uint, date string, patch *PlanPatch) (*model.DailyPlan, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	oneMonthAgo := daterange.Day(r.now().AddDate(0, -1, 0))
	if date < oneMonthAgo {
		return nil, ValidationError("plans older than one month can no longer be edited")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan := model.DailyPlan{UserID: userID, PlanDate: date}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "plan_date"}},
			DoNothing: true,
		}).Create(&plan).Error; err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		if err := tx.Where("user_id = ? AND plan_date = ?", userID, date).
			First(&plan).Error; err != nil {
			return fmt.Errorf("load plan: %w", err)
		}

		updates := map[string]interface{}{"updated_at": r.now()}
		if patch.Reflection != nil {
			updates["reflection"] = *patch.Reflection
		}
		if patch.FocusTomorrow != nil {
			updates["focus_tomorrow"] = *patch.FocusTomorrow
		}
		if err := tx.Model(&plan).Updates(updates).Error; err != nil {
			return fmt.Errorf("update plan fields: %w", err)
		}

		if patch.DeepWork != nil {
			if err := applyDeepWork(tx, plan.ID, patch.DeepWork); err != nil {
				return err
			}
		}
		if patch.QuickWins != nil {
			if err := applyQuickWins(tx, plan.ID, patch.QuickWins); err != nil {
				return err
			}
		}
		if patch.MakeItHappen != nil {
			if err := applyMakeItHappen(tx, plan.ID, patch.MakeItHappen); err != nil {
				return err
			}
		}
		if patch.Recharge != nil {
			if err := applyRecharge(tx, plan.ID, patch.Recharge); err != nil {
				return err
			}
		}
		if patch.LittleJoys != nil {
			if err := applyLittleJoys(tx, plan.ID, patch.LittleJoys); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.fetch(ctx, r.db, userID, date)
}

func applyDeepWork(tx *gorm.DB, planID uint, m *DeepWorkMutations) error {
	for _, in := range m.Add {
		if in.Title == "" {
			return ValidationError("deep work item title is required")
		}
		item := model.DeepWorkItem{
			PlanID:          planID,
			Title:           in.Title,
			Notes:           in.Notes,
			EstimateMinutes: in.EstimateMinutes,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("add deep work item: %w", err)
		}
	}
	for _, up := range m.Update {
		updates := map[string]interface{}{}
		if up.Title != nil {
			updates["title"] = *up.Title
		}
		if up.Notes != nil {
			updates["notes"] = *up.Notes
		}
		if up.EstimateMinutes != nil {
			updates["estimate_minutes"] = *up.EstimateMinutes
		}
		if up.Completed != nil {
			updates["completed"] = *up.Completed
		}
		if err := applyItemUpdate(tx, &model.DeepWorkItem{}, up.ID, planID, updates); err != nil {
			return err
		}
	}
	return applyDeletes(tx, &model.DeepWorkItem{}, planID, m.Delete)
}

func applyQuickWins(tx *gorm.DB, planID uint, m *QuickWinMutations) error {
	for _, in := range m.Add {
		if in.Title == "" {
			return ValidationError("quick win title is required")
		}
		if err := tx.Create(&model.QuickWin{PlanID: planID, Title: in.Title}).Error; err != nil {
			return fmt.Errorf("add quick win: %w", err)
		}
	}
	for _, up := range m.Update {
		updates := map[string]interface{}{}
		if up.Title != nil {
			updates["title"] = *up.Title
		}
		if up.Completed != nil {
			updates["completed"] = *up.Completed
		}
		if err := applyItemUpdate(tx, &model.QuickWin{}, up.ID, planID, updates); err != nil {
			return err
		}
	}
	return applyDeletes(tx, &model.QuickWin{}, planID, m.Delete)
}

func applyMakeItHappen(tx *gorm.DB, planID uint, m *MakeItHappenMutations) error {
	for _, in := range m.Add {
		if in.Title == "" {
			return ValidationError("make it happen title is required")
		}
		// At most one live task per plan; completed ones do not count.
		var live int64
		if err := tx.Model(&model.MakeItHappenTask{}).
			Where("plan_id = ? AND completed = ?", planID, false).
			Count(&live).Error; err != nil {
			return fmt.Errorf("count live tasks: %w", err)
		}
		if live > 0 {
			return ValidationError("a make it happen task is already in progress for this plan")
		}
		if err := tx.Create(&model.MakeItHappenTask{PlanID: planID, Title: in.Title, Why: in.Why}).Error; err != nil {
			return fmt.Errorf("add make it happen task: %w", err)
		}
	}
	for _, up := range m.Update {
		updates := map[string]interface{}{}
		if up.Title != nil {
			updates["title"] = *up.Title
		}
		if up.Why != nil {
			updates["why"] = *up.Why
		}
		if up.Completed != nil {
			updates["completed"] = *up.Completed
		}
		if err := applyItemUpdate(tx, &model.MakeItHappenTask{}, up.ID, planID, updates); err != nil {
			return err
		}
	}
	return applyDeletes(tx, &model.MakeItHappenTask{}, planID, m.Delete)
}

func applyRecharge(tx *gorm.DB, planID uint, m *RechargeMutations) error {
	for _, in := range m.Add {
		if in.Activity == "" {
			return ValidationError("recharge activity is required")
		}
		if err := tx.Create(&model.RechargeZone{PlanID: planID, Activity: in.Activity}).Error; err != nil {
			return fmt.Errorf("add recharge activity: %w", err)
		}
	}
	for _, up := range m.Update {
		updates := map[string]interface{}{}
		if up.Activity != nil {
			updates["activity"] = *up.Activity
		}
		if up.Completed != nil {
			updates["completed"] = *up.Completed
		}
		if err := applyItemUpdate(tx, &model.RechargeZone{}, up.ID, planID, updates); err != nil {
			return err
		}
	}
	return applyDeletes(tx, &model.RechargeZone{}, planID, m.Delete)
}

func applyLittleJoys(tx *gorm.DB, planID uint, m *LittleJoyMutations) error {
	for _, in := range m.Add {
		if in.Description == "" {
			return ValidationError("little joy description is required")
		}
		if err := tx.Create(&model.LittleJoy{PlanID: planID, Description: in.Description}).Error; err != nil {
			return fmt.Errorf("add little joy: %w", err)
		}
	}
	for _, up := range m.Update {
		updates := map[string]interface{}{}
		if up.Description != nil {
			updates["description"] = *up.Description
		}
		if err := applyItemUpdate(tx, &model.LittleJoy{}, up.ID, planID, updates); err != nil {
			return err
		}
	}
	return applyDeletes(tx, &model.LittleJoy{}, planID, m.Delete)
}

// applyItemUpdate scopes the write to the owning plan, so a caller can never
// touch another plan's row by guessing IDs. Zero rows affected means the
// item is not on this plan, which aborts the whole transaction.
func applyItemUpdate(tx *gorm.DB, item interface{}, id, planID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := tx.Model(item).Where("id = ? AND plan_id = ?", id, planID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ValidationError(fmt.Sprintf("item %d not found on this plan", id))
	}
	return nil
}

func applyDeletes(tx *gorm.DB, item interface{}, planID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	res := tx.Where("id IN ? AND plan_id = ?", ids, planID).Delete(item)
	if res.Error != nil {
		return fmt.Errorf("delete items: %w", res.Error)
	}
	if res.RowsAffected != int64(len(ids)) {
		return ValidationError("one or more items to delete were not found on this plan")
	}
	return nil
}

func (r *PlanRepository) fetch(ctx context.Context, db *gorm.DB, userID uint, date string) (*model.DailyPlan, error) {
	var plan model.DailyPlan
	if err := db.WithContext(ctx).
		Preload("DeepWorkItems").
		Preload("QuickWins").
		Preload("MakeItHappenTasks").
		Preload("RechargeZones").
		Preload("LittleJoys").
		Where("user_id = ? AND plan_date = ?", userID, date).
		First(&plan).Error; err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return &plan, nil
}

func validateDate(date string) error {
	if _, err := time.Parse(daterange.Layout, date); err != nil {
		return ValidationError("invalid date, expected YYYY-MM-DD")
	}
	return nil
}
