package storage

import (
	"bitwise74/docs-api/internal/metrics"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/pipeline"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Variant string

const (
	VariantWeb   Variant = "web"
	VariantThumb Variant = "thumb"
)

// Variants lists every rendition kept next to an image, largest first
var Variants = []Variant{VariantWeb, VariantThumb}

var variantWidths = map[Variant]int{
	VariantWeb:   1280,
	VariantThumb: 256,
}

// ParseVariant returns the variant named s
func ParseVariant(s string) (Variant, bool) {
	v := Variant(s)
	_, ok := variantWidths[v]
	return v, ok
}

// Renderer scales an image file down to a JPEG of the given width
type Renderer interface {
	Resize(ctx context.Context, src, dst string, width int) error
}

// RenderVariants creates the scaled renditions of an image. A variant that
// fails is skipped and logged, the placeholder is served in its place
func (s *FileStore) RenderVariants(ctx context.Context, f *model.File, plainPath string) error {
	if s.renderer == nil || pipeline.Classify(f.MimeType) != pipeline.CategoryImage {
		return nil
	}

	key, err := s.repo.Users.PrivateKey(ctx, f.UserID)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "variants-*")
	if err != nil {
		return fmt.Errorf("failed to create variant directory, %w", err)
	}
	defer os.RemoveAll(dir)

	for _, v := range Variants {
		if err := ctx.Err(); err != nil {
			return err
		}

		scaled := filepath.Join(dir, string(v)+".jpg")
		if err := s.renderer.Resize(ctx, plainPath, scaled, variantWidths[v]); err != nil {
			metrics.VariantsRendered.WithLabelValues(string(v), "failed").Inc()
			zap.L().Warn("Failed to render variant",
				zap.String("file_id", f.ID),
				zap.String("variant", string(v)),
				zap.Error(err))
			continue
		}

		if err := s.enc.EncryptFile(scaled, key, s.VariantPath(f.ID, v)); err != nil {
			metrics.VariantsRendered.WithLabelValues(string(v), "failed").Inc()
			zap.L().Error("Failed to store variant", zap.String("file_id", f.ID), zap.Error(err))
			continue
		}

		metrics.VariantsRendered.WithLabelValues(string(v), "ok").Inc()
	}

	return nil
}

// OpenVariant returns the decrypted rendition of a file. The placeholder image
// is returned when the variant was never rendered
func (s *FileStore) OpenVariant(ctx context.Context, f *model.File, v Variant) (rc io.ReadCloser, mime string, err error) {
	p := s.VariantPath(f.ID, v)
	if _, err := os.Stat(p); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("Failed to stat variant", zap.String("path", p), zap.Error(err))
		}
		return placeholder(), "image/png", nil
	}

	key, err := s.repo.Users.PrivateKey(ctx, f.UserID)
	if err != nil {
		return nil, "", err
	}

	rc, err = s.enc.OpenStream(p, key)
	if err != nil {
		zap.L().Error("Failed to open variant", zap.String("file_id", f.ID), zap.Error(err))
		return placeholder(), "image/png", nil
	}

	return rc, "image/jpeg", nil
}

func placeholder() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(placeholderPNG))
}
