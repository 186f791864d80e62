// Package service contains stuff related to the background processing
// of the application
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const renderTimeout = time.Minute

// Resize scales the image at src down to width pixels and writes it to dst as
// a JPEG. Smaller images keep their size
func (q *JobQueue) Resize(ctx context.Context, src, dst string, width int) error {
	zap.L().Debug("Rendering image variant", zap.Int("width", width))
	now := time.Now()

	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	done := make(chan error, 1)

	err := q.Enqueue(&FFmpegJob{
		ID:   newJobID(),
		Args: resizeArgs(src, dst, width),
		Ctx:  ctx,
		Done: done,
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return fmt.Errorf("failed to render variant, %w", ctx.Err())
	}

	zap.L().Debug("Finished rendering variant", zap.Duration("took", time.Since(now)))
	return nil
}

func resizeArgs(src, dst string, width int) []string {
	return []string{
		"-loglevel", "error",
		"-i", src,
		"-frames:v", "1",
		"-q:v", "3",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", width),
		"-f", "image2",
		"-c:v", "mjpeg",
		dst, "-y",
	}
}
