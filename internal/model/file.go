// Package model defines database models
package model

import (
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"
)

type File struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Nil while the file is an orphan that only its uploader can see
	DocumentID *string `gorm:"size:36;index" json:"document_id"`
	// Owner of the file. The ciphertext is always encrypted with this user's key,
	// even after the file gets attached to someone else's document
	UserID string `gorm:"size:36;not null;index" json:"-"`
	// Shared by every version of one logical file. Nil on the first upload, the ID of
	// the first version afterwards
	VersionID *string `gorm:"size:36;index" json:"version_id"`
	Version   int     `gorm:"not null;default:0" json:"version"`
	// Only the newest version of a lineage is listed in its document
	Latest bool `gorm:"not null;index" json:"-"`
	// "order" is a reserved word in most SQL dialects
	Order    int     `gorm:"column:sort_order;not null;default:0" json:"order"`
	Name     *string `gorm:"size:200" json:"name"`
	MimeType string  `gorm:"size:100;not null" json:"mimetype"`
	// Plaintext size in bytes
	Size int64 `gorm:"not null" json:"size"`
	// Cached text extracted by the content pipeline
	Content    *string        `gorm:"type:text" json:"-"`
	CreateDate time.Time      `gorm:"not null" json:"create_date"`
	DeleteDate gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsOrphan reports whether the file is not attached to any document yet
func (f *File) IsOrphan() bool {
	return f.DocumentID == nil
}

// LineageID returns the identifier shared by all versions of this file
func (f *File) LineageID() string {
	if f.VersionID != nil {
		return *f.VersionID
	}

	return f.ID
}

// FullName returns the file name, or the fallback with an extension guessed from
// the mime type when the file has no name
func (f *File) FullName(fallback string) string {
	if f.Name != nil && *f.Name != "" {
		return *f.Name
	}

	if m := mimetype.Lookup(f.MimeType); m != nil {
		return fallback + m.Extension()
	}

	return fallback
}
