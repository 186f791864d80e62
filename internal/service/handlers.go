package service

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/pipeline"
	"bitwise74/docs-api/internal/repository"
	"bitwise74/docs-api/internal/storage"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Handlers reacts to the events raised by the HTTP layer
type Handlers struct {
	Repo     *repository.Repository
	Store    *storage.FileStore
	Pipeline *pipeline.Pipeline
	// Nil when mirroring is disabled
	Mirror *Mirror
}

// Register subscribes every handler to b. Handlers of one event type run in
// the order they are registered here
func (h *Handlers) Register(b *event.Bus) {
	b.Subscribe(event.TypeFileUpdated, "process_file", h.processFile)
	b.Subscribe(event.TypeFileDeleted, "release_quota", h.releaseQuota)
	b.Subscribe(event.TypeDocumentUpdated, "touch_document", h.touchDocument)

	if h.Mirror != nil {
		b.Subscribe(event.TypeFileUpdated, "mirror_upload", h.Mirror.upload)
		b.Subscribe(event.TypeFileDeleted, "mirror_delete", h.Mirror.delete)
	}
}

// processFile renders the image variants and runs the content pipeline. Both
// are best effort, the upload already succeeded
func (h *Handlers) processFile(ctx context.Context, e event.Event) error {
	ev := e.(event.FileUpdated)
	defer h.Pipeline.Processing().Done(ev.FileID)

	f, err := h.Store.Get(ctx, ev.FileID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			zap.L().Debug("File deleted before processing", zap.String("file_id", ev.FileID))
			return nil
		}
		return err
	}

	if err := h.Store.RenderVariants(ctx, f, ev.UnencryptedPath); err != nil {
		zap.L().Warn("Failed to render variants", zap.String("file_id", f.ID), zap.Error(err))
	}

	res := h.Pipeline.Run(ctx, ev)

	zap.L().Debug("File processed",
		zap.String("file_id", f.ID),
		zap.String("state", string(res.State)),
		zap.String("category", string(res.Category)),
		zap.Strings("tags", res.TagIDs))

	return nil
}

func (h *Handlers) releaseQuota(ctx context.Context, e event.Event) error {
	ev := e.(event.FileDeleted)

	owner := ev.OwnerID
	if owner == "" {
		owner = ev.UserID
	}

	return h.Repo.Stats.Release(ctx, owner, ev.Size)
}

func (h *Handlers) touchDocument(ctx context.Context, e event.Event) error {
	ev := e.(event.DocumentUpdated)

	return h.Repo.Documents.Touch(ctx, ev.DocumentID, time.Now())
}
