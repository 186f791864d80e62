package repository

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type FileRepo struct {
	db *gorm.DB
}

func (r *FileRepo) Create(ctx context.Context, f *model.File) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create file, %w", err)
	}

	return nil
}

// Update writes the mutable fields of a file back
func (r *FileRepo) Update(ctx context.Context, f *model.File) error {
	err := r.db.WithContext(ctx).
		Model(f).
		Select("Name", "Order", "DocumentID", "Latest").
		Updates(f).
		Error
	if err != nil {
		return fmt.Errorf("failed to update file, %w", err)
	}

	return nil
}

// SetContent caches the text extracted from a file
func (r *FileRepo) SetContent(ctx context.Context, id, content string) error {
	err := r.db.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ?", id).
		Update("content", content).
		Error
	if err != nil {
		return fmt.Errorf("failed to store file content, %w", err)
	}

	return nil
}

func (r *FileRepo) Get(ctx context.Context, id string) (*model.File, error) {
	var f model.File
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, notFound(err, "file")
	}

	return &f, nil
}

// GetOwned returns the file only if it belongs to userID
func (r *FileRepo) GetOwned(ctx context.Context, id, userID string) (*model.File, error) {
	var f model.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&f).
		Error
	if err != nil {
		return nil, notFound(err, "file")
	}

	return &f, nil
}

// GetMany returns the files in the same order as ids. A missing id fails the
// whole lookup
func (r *FileRepo) GetMany(ctx context.Context, ids []string) ([]*model.File, error) {
	if len(ids) == 0 {
		return []*model.File{}, nil
	}

	var found []*model.File
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to query files, %w", err)
	}

	byID := make(map[string]*model.File, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}

	files := make([]*model.File, 0, len(ids))
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("file %s: %w", id, apperr.ErrNotFound)
		}
		files = append(files, f)
	}

	return files, nil
}

// ListByDocument returns the current version of every file in a document,
// sorted by their order
func (r *FileRepo) ListByDocument(ctx context.Context, documentID string) ([]*model.File, error) {
	var files []*model.File
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND latest = ?", documentID, true).
		Order("sort_order ASC, create_date ASC").
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list document files, %w", err)
	}

	return files, nil
}

// ListOrphans returns the current version of every unattached file of a user
func (r *FileRepo) ListOrphans(ctx context.Context, userID string) ([]*model.File, error) {
	var files []*model.File
	err := r.db.WithContext(ctx).
		Where("document_id IS NULL AND user_id = ? AND latest = ?", userID, true).
		Order("create_date ASC").
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan files, %w", err)
	}

	return files, nil
}

// ListVersions returns every version of a lineage, newest first
func (r *FileRepo) ListVersions(ctx context.Context, lineageID string) ([]*model.File, error) {
	var files []*model.File
	err := r.db.WithContext(ctx).
		Where("id = ? OR version_id = ?", lineageID, lineageID).
		Order("version DESC").
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list file versions, %w", err)
	}

	return files, nil
}

// NextOrder returns the order a file appended to the document gets, one past
// the highest order among its current files
func (r *FileRepo) NextOrder(ctx context.Context, documentID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.File{}).
		Select("COALESCE(MAX(sort_order), -1) + 1").
		Where("document_id = ? AND latest = ?", documentID, true).
		Scan(&n).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to find next document order, %w", err)
	}

	return int(n), nil
}

// ListExpiredOrphans returns orphans created before the cutoff
func (r *FileRepo) ListExpiredOrphans(ctx context.Context, cutoff time.Time) ([]*model.File, error) {
	var files []*model.File
	err := r.db.WithContext(ctx).
		Where("document_id IS NULL AND latest = ? AND create_date < ?", true, cutoff).
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired orphans, %w", err)
	}

	return files, nil
}

// Delete soft deletes the given files
func (r *FileRepo) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.File{}).Error; err != nil {
		return fmt.Errorf("failed to delete files, %w", err)
	}

	return nil
}
