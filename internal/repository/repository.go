// Package repository persists the service entities with gorm. Every method
// takes a context and maps missing rows to apperr.ErrNotFound
package repository

import (
	"bitwise74/docs-api/internal/apperr"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB

	Files     *FileRepo
	Tags      *TagRepo
	ACL       *ACLRepo
	Users     *UserRepo
	Documents *DocumentRepo
	Stats     *StatsRepo
}

func New(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		Files:     &FileRepo{db: db},
		Tags:      &TagRepo{db: db},
		ACL:       &ACLRepo{db: db},
		Users:     &UserRepo{db: db},
		Documents: &DocumentRepo{db: db},
		Stats:     &StatsRepo{db: db},
	}
}

// Transaction runs fn with a repository bound to a single database
// transaction. Returning an error from fn rolls everything back
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}

	return fmt.Errorf("failed to query %s, %w", what, err)
}
