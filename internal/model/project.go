package model

import "gorm.io/gorm"

type Project struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Name   string `json:"name" gorm:"not null"`
	Slug   string `json:"slug" gorm:"index"`

	Updates []ProjectUpdate `json:"-"`
}

type ProjectUpdate struct {
	gorm.Model
	ProjectID uint   `json:"project_id" gorm:"not null;index"`
	Content   string `json:"content" gorm:"not null"`
	Completed bool   `json:"completed" gorm:"default:false"`
}
