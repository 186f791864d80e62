package security

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthHandler checks credentials of one authentication scheme
type AuthHandler interface {
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

// AuthRegistry holds every authentication handler the server knows about.
// It is built once at startup
type AuthRegistry struct {
	schemes  []string
	handlers map[string]AuthHandler
}

func NewAuthRegistry() *AuthRegistry {
	return &AuthRegistry{handlers: make(map[string]AuthHandler)}
}

// Register adds a handler. Handlers are tried in registration order
func (r *AuthRegistry) Register(scheme string, h AuthHandler) {
	if _, ok := r.handlers[scheme]; !ok {
		r.schemes = append(r.schemes, scheme)
	}

	r.handlers[scheme] = h
}

func (r *AuthRegistry) Schemes() []string {
	return r.schemes
}

// Authenticate returns the user accepted by the first handler
func (r *AuthRegistry) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	for _, scheme := range r.schemes {
		u, err := r.handlers[scheme].Authenticate(ctx, username, password)
		if err == nil {
			return u, nil
		}

		if !errors.Is(err, ErrInvalidCredentials) {
			zap.L().Error("Authentication handler failed", zap.String("scheme", scheme), zap.Error(err))
		}
	}

	return nil, ErrInvalidCredentials
}

type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// PasswordAuth checks a username and password against the stored argon2id hash
type PasswordAuth struct {
	Users UserLookup
	Argon *ArgonHash
}

func (p *PasswordAuth) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := p.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := p.Argon.VerifyPasswd(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if updater, ok := p.Users.(HashUpdater); ok && p.Argon.NeedsRehash(u.PasswordHash) {
		p.rehash(ctx, updater, u, password)
	}

	return u, nil
}

// HashUpdater is implemented by user stores that can replace a stored hash
type HashUpdater interface {
	SetPasswordHash(ctx context.Context, userID, hash string) error
}

// rehash upgrades a hash made with older parameters. Failures only get logged,
// the login itself already succeeded
func (p *PasswordAuth) rehash(ctx context.Context, updater HashUpdater, u *model.User, password string) {
	hash, err := p.Argon.GenerateFromPassword(password)
	if err == nil {
		err = updater.SetPasswordHash(ctx, u.ID, hash)
	}
	if err != nil {
		zap.L().Warn("Failed to upgrade password hash", zap.String("userID", u.ID), zap.Error(err))
		return
	}

	u.PasswordHash = hash
}
