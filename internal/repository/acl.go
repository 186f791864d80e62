package repository

import (
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type ACLRepo struct {
	db *gorm.DB
}

func (r *ACLRepo) Create(ctx context.Context, entries ...model.ACL) error {
	if len(entries) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to create acl entries, %w", err)
	}

	return nil
}

// CheckPermission reports whether any of the targets holds perm on a
// document that still exists
func (r *ACLRepo) CheckPermission(ctx context.Context, documentID string, perm model.PermType, targetIDs []string) (bool, error) {
	if documentID == "" || len(targetIDs) == 0 {
		return false, nil
	}

	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ACL{}).
		Joins("JOIN documents ON documents.id = acls.document_id AND documents.delete_date IS NULL").
		Where("acls.document_id = ? AND acls.perm = ? AND acls.target_id IN ?", documentID, perm, targetIDs).
		Count(&n).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to check permission, %w", err)
	}

	return n > 0, nil
}
