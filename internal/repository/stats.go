package repository

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type StatsRepo struct {
	db *gorm.DB
}

func (r *StatsRepo) Get(ctx context.Context, userID string) (*model.Stats, error) {
	var s model.Stats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, notFound(err, "stats")
	}

	return &s, nil
}

// Reserve accounts size bytes against the user's quota. It fails with
// apperr.ErrQuota when the upload doesn't fit
func (r *StatsRepo) Reserve(ctx context.Context, userID string, size int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Stats{}).
		Where("user_id = ? AND used_storage + ? <= max_storage", userID, size).
		Updates(map[string]any{
			"used_storage":   gorm.Expr("used_storage + ?", size),
			"uploaded_files": gorm.Expr("uploaded_files + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update stats, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, userID); err != nil {
			return err
		}
		return fmt.Errorf("%d more bytes don't fit: %w", size, apperr.ErrQuota)
	}

	return nil
}

// Release gives size bytes back to the user's quota
func (r *StatsRepo) Release(ctx context.Context, userID string, size int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.Stats{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"used_storage":   gorm.Expr("CASE WHEN used_storage > ? THEN used_storage - ? ELSE 0 END", size, size),
			"uploaded_files": gorm.Expr("CASE WHEN uploaded_files > 0 THEN uploaded_files - 1 ELSE 0 END"),
		}).
		Error
	if err != nil {
		return fmt.Errorf("failed to update stats, %w", err)
	}

	return nil
}
