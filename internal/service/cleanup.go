package service

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/storage"
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OrphanCleanup deletes orphan files nobody attached to a document in time
type OrphanCleanup struct {
	Store *storage.FileStore
	Bus   *event.Bus
	TTL   time.Duration
}

// Run deletes every expired orphan once and returns how many were removed
func (c *OrphanCleanup) Run(ctx context.Context) (int, error) {
	files, err := c.Store.ExpiredOrphans(ctx, c.TTL)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		outbox := event.NewOutbox()

		if err := c.Store.Delete(ctx, f.ID, f.UserID, outbox); err != nil {
			outbox.Discard()
			zap.L().Error("Failed to delete expired orphan", zap.String("file_id", f.ID), zap.Error(err))
			continue
		}

		c.Bus.Flush(outbox)
		removed++
	}

	return removed, nil
}

// Schedule runs the cleanup on the cron schedule until the returned cron is
// stopped
func (c *OrphanCleanup) Schedule(schedule string) (*cron.Cron, error) {
	cr := cron.New()

	_, err := cr.AddFunc(schedule, func() {
		n, err := c.Run(context.Background())
		if err != nil {
			zap.L().Error("Failed to query expired orphans", zap.Error(err))
			return
		}

		if n > 0 {
			zap.L().Info("Orphan cleanup finished", zap.Int("removed", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse cleanup schedule, %w", err)
	}

	cr.Start()
	zap.L().Debug("Orphan cleanup attached", zap.String("schedule", schedule), zap.Duration("ttl", c.TTL))

	return cr, nil
}
