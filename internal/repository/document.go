package repository

import (
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type DocumentRepo struct {
	db *gorm.DB
}

func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create document, %w", err)
	}

	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err, "document")
	}

	return &d, nil
}

// Touch moves the update date of a document
func (r *DocumentRepo) Touch(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Update("update_date", at).
		Error
	if err != nil {
		return fmt.Errorf("failed to touch document, %w", err)
	}

	return nil
}
