package repository

import (
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

// Create stores the user together with its stats row
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &u, nil
}

// SetPasswordHash replaces the stored password hash of a user
func (r *UserRepo) SetPasswordHash(ctx context.Context, userID, hash string) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).
		Error
	if err != nil {
		return fmt.Errorf("failed to update password hash, %w", err)
	}

	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &u, nil
}

// PrivateKey returns the key material every file of the user is encrypted with
func (r *UserRepo) PrivateKey(ctx context.Context, id string) (string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("private_key", &keys).
		Error
	if err != nil {
		return "", fmt.Errorf("failed to query user key, %w", err)
	}
	if len(keys) == 0 || keys[0] == "" {
		return "", notFound(gorm.ErrRecordNotFound, "user")
	}

	return keys[0], nil
}

// GroupIDs returns the groups the user is a member of
func (r *UserRepo) GroupIDs(ctx context.Context, id string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.GroupMember{}).
		Where("user_id = ?", id).
		Pluck("group_id", &ids).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user groups, %w", err)
	}

	return ids, nil
}

func (r *UserRepo) AddToGroup(ctx context.Context, userID, groupID string) error {
	err := r.db.WithContext(ctx).
		Create(&model.GroupMember{GroupID: groupID, UserID: userID}).
		Error
	if err != nil {
		return fmt.Errorf("failed to add user to group, %w", err)
	}

	return nil
}
