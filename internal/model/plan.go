package model

import (
	"gorm.io/gorm"
)

// DailyPlan is the per-(user, date) aggregate the zone rows hang off.
// PlanDate is stored as a plain YYYY-MM-DD string so that date comparisons
// and grouping keys are stable regardless of driver time handling.
type DailyPlan struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"not null;uniqueIndex:uidx_user_plan_date"`
	PlanDate string `json:"plan_date" gorm:"size:10;not null;uniqueIndex:uidx_user_plan_date"`

	Reflection    string `json:"reflection"`
	FocusTomorrow string `json:"focus_tomorrow"`

	DeepWorkItems     []DeepWorkItem     `json:"deep_work_items" gorm:"foreignKey:PlanID"`
	QuickWins         []QuickWin         `json:"quick_wins" gorm:"foreignKey:PlanID"`
	MakeItHappenTasks []MakeItHappenTask `json:"make_it_happen_tasks" gorm:"foreignKey:PlanID"`
	RechargeZones     []RechargeZone     `json:"recharge_zones" gorm:"foreignKey:PlanID"`
	LittleJoys        []LittleJoy        `json:"little_joys" gorm:"foreignKey:PlanID"`
}

type DeepWorkItem struct {
	gorm.Model
	PlanID          uint   `json:"plan_id" gorm:"not null;index"`
	Title           string `json:"title" gorm:"not null"`
	Notes           string `json:"notes"`
	EstimateMinutes int    `json:"estimate_minutes"`
	Completed       bool   `json:"completed" gorm:"default:false"`
}

type QuickWin struct {
	gorm.Model
	PlanID    uint   `json:"plan_id" gorm:"not null;index"`
	Title     string `json:"title" gorm:"not null"`
	Completed bool   `json:"completed" gorm:"default:false"`
}

// MakeItHappenTask is kept to at most one live (non-completed) row per plan.
// The write path enforces this; historical rows may still hold duplicates.
type MakeItHappenTask struct {
	gorm.Model
	PlanID    uint   `json:"plan_id" gorm:"not null;index"`
	Title     string `json:"title" gorm:"not null"`
	Why       string `json:"why"`
	Completed bool   `json:"completed" gorm:"default:false"`
}

type RechargeZone struct {
	gorm.Model
	PlanID    uint   `json:"plan_id" gorm:"not null;index"`
	Activity  string `json:"activity" gorm:"not null"`
	Completed bool   `json:"completed" gorm:"default:false"`
}

type LittleJoy struct {
	gorm.Model
	PlanID      uint   `json:"plan_id" gorm:"not null;index"`
	Description string `json:"description" gorm:"not null"`
}
