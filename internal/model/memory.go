package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoreMemory is owned by the user directly, not a plan; MemoryDate is an
// independent YYYY-MM-DD string that does not have to match any plan date.
type CoreMemory struct {
	gorm.Model
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	MemoryDate  string         `json:"memory_date" gorm:"size:10;not null;index"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Tags        datatypes.JSON `json:"tags"`
}
