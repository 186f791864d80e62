package internal

import (
	"bitwise74/docs-api/cloudflare"
	"bitwise74/docs-api/config"
	"bitwise74/docs-api/internal/access"
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/format"
	"bitwise74/docs-api/internal/pipeline"
	"bitwise74/docs-api/internal/repository"
	"bitwise74/docs-api/internal/service"
	"bitwise74/docs-api/internal/storage"
	"bitwise74/docs-api/internal/suggest"
	"bitwise74/docs-api/pkg/security"
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Deps holds every long lived component of the server
type Deps struct {
	DB       *gorm.DB
	Repo     *repository.Repository
	Argon    *security.ArgonHash
	Auth     *security.AuthRegistry
	Gate     *access.Gate
	Formats  *format.Registry
	Store    *storage.FileStore
	Pipeline *pipeline.Pipeline
	Bus      *event.Bus
	JobQueue *service.JobQueue
	// Nil unless cloudflare.mirror is enabled
	R2 *cloudflare.R2Client
}

// NewDeps wires the components together and subscribes the background
// handlers to bus
func NewDeps(ctx context.Context, c *config.Config, db *gorm.DB, bus *event.Bus) (*Deps, error) {
	d := &Deps{
		DB:       db,
		Repo:     repository.New(db),
		Argon:    security.NewArgon(),
		Auth:     security.NewAuthRegistry(),
		Formats:  format.Default(),
		Bus:      bus,
		JobQueue: service.NewJobQueue(&c.Render),
	}

	d.Gate = access.NewGate(d.Repo.ACL, d.Repo.Users)
	d.Auth.Register("password", &security.PasswordAuth{Users: d.Repo.Users, Argon: d.Argon})

	d.Pipeline = pipeline.New(d.Repo, pipeline.Options{
		Formats: d.Formats,
		Suggester: suggest.New(suggest.Config{
			BaseURL:        c.Tagging.BaseURL,
			APIKey:         c.Tagging.APIKey,
			Model:          c.Tagging.Model,
			Temperature:    c.Tagging.Temperature,
			MaxCharacters:  c.Tagging.MaxCharacters,
			ConnectTimeout: c.Tagging.ConnectTimeout,
			RequestTimeout: c.Tagging.RequestTimeout,
		}),
		DefaultColor: c.Tagging.DefaultColor,
	})

	store, err := storage.New(d.Repo, storage.Options{
		Root:      c.Storage.Path,
		Encrypter: security.NewEncrypter(""),
		Tracker:   d.Pipeline.Processing(),
		Renderer:  d.JobQueue,
	})
	if err != nil {
		return nil, err
	}
	d.Store = store

	handlers := &service.Handlers{
		Repo:     d.Repo,
		Store:    d.Store,
		Pipeline: d.Pipeline,
	}

	if c.Cloudflare.Mirror {
		d.R2, err = cloudflare.NewR2(ctx, &c.Cloudflare)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 client, %w", err)
		}
		handlers.Mirror = service.NewMirror(d.R2, d.Store)
	}

	handlers.Register(d.Bus)
	d.JobQueue.StartWorkerPool()

	return d, nil
}
