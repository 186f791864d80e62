package repository

import (
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
)

type TagRepo struct {
	db *gorm.DB
}

func (r *TagRepo) Create(ctx context.Context, t *model.Tag) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tag, %w", err)
	}

	return nil
}

func (r *TagRepo) Get(ctx context.Context, id, userID string) (*model.Tag, error) {
	var t model.Tag
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).
		Error
	if err != nil {
		return nil, notFound(err, "tag")
	}

	return &t, nil
}

// ListByUser returns every tag created by a user sorted by name
func (r *TagRepo) ListByUser(ctx context.Context, userID string) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&tags).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags, %w", err)
	}

	return tags, nil
}

// ListByDocument returns the tags currently linked to a document
func (r *TagRepo) ListByDocument(ctx context.Context, documentID string) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN document_tags ON document_tags.tag_id = tags.id").
		Where("document_tags.document_id = ?", documentID).
		Order("tags.name ASC").
		Find(&tags).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list document tags, %w", err)
	}

	return tags, nil
}

// UpdateTagList replaces the whole tag set of a document
func (r *TagRepo) UpdateTagList(ctx context.Context, documentID string, tagIDs []string) error {
	ids := slices.Clone(tagIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.DocumentTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear document tags, %w", err)
		}

		if len(ids) == 0 {
			return nil
		}

		links := make([]model.DocumentTag, len(ids))
		for i, id := range ids {
			links[i] = model.DocumentTag{DocumentID: documentID, TagID: id}
		}

		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link document tags, %w", err)
		}

		return nil
	})
}

// Delete removes a tag and detaches it from every document
func (r *TagRepo) Delete(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Tag{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete tag, %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "tag")
		}

		if err := tx.Where("tag_id = ?", id).Delete(&model.DocumentTag{}).Error; err != nil {
			return fmt.Errorf("failed to detach tag, %w", err)
		}

		return nil
	})
}
