package internal

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/pkg/security"
	"bitwise74/docs-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateUser registers a user with a fresh encryption key and the given
// storage quota
func (d *Deps) CreateUser(ctx context.Context, username, password string, quota int64) (*model.User, error) {
	if err := validators.UsernameValidator(username); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	if _, err := d.Repo.Users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %s is taken: %w", username, apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := d.Argon.GenerateFromPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	key, err := security.GenerateKey()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PrivateKey:   key,
		CreateDate:   time.Now(),
		Stats:        model.Stats{MaxStorage: quota},
	}

	if err := d.Repo.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	zap.L().Info("User created", zap.String("userID", u.ID), zap.String("username", username))
	return u, nil
}
