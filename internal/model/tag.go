package model

import (
	"time"

	"gorm.io/gorm"
)

type Tag struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Matched case-insensitively but stored as given
	Name       string         `gorm:"size:36;not null" json:"name"`
	Color      string         `gorm:"size:7;not null" json:"color"`
	UserID     string         `gorm:"size:36;not null;index" json:"-"`
	CreateDate time.Time      `gorm:"not null" json:"-"`
	DeleteDate gorm.DeletedAt `gorm:"index" json:"-"`
}

// DocumentTag links a tag to a document. The full set of links of a document is
// replaced at once when its tags change
type DocumentTag struct {
	DocumentID string `gorm:"primaryKey;size:36"`
	TagID      string `gorm:"primaryKey;size:36;index"`
}
