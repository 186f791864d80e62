package model

import (
	"time"

	"gorm.io/gorm"
)

type Document struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"size:36;not null;index" json:"-"`
	Title  string `gorm:"size:100;not null" json:"title"`
	// ISO 639-3 code handed to the text extractors as a hint
	Language   string         `gorm:"size:7;not null;default:eng" json:"language"`
	CreateDate time.Time      `gorm:"not null" json:"create_date"`
	UpdateDate time.Time      `gorm:"not null" json:"update_date"`
	DeleteDate gorm.DeletedAt `gorm:"index" json:"-"`
}
