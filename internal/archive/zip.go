// Package archive streams many decrypted files as one zip archive
package archive

import (
	"bitwise74/docs-api/internal/metrics"
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/klauspost/compress/zip"
)

var nonWord = regexp.MustCompile(`\W+`)

// OpenFunc returns the decrypted content of a file
type OpenFunc func(ctx context.Context, f *model.File) (io.ReadCloser, error)

// Name turns a document title into the name of its archive, without the
// extension
func Name(title string) string {
	return nonWord.ReplaceAllString(title, "_")
}

// EntryName returns the name of the index-th entry of an archive
func EntryName(index int, f *model.File) string {
	i := strconv.Itoa(index)
	return i + "-" + f.FullName(i)
}

// Stream writes files to w as a zip archive, in order. The caller has
// already filtered files by permission. The first failure aborts the stream,
// whatever was written to w stays written
func Stream(ctx context.Context, w io.Writer, files []*model.File, open OpenFunc) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		metrics.ZipExports.WithLabelValues(outcome).Inc()
	}()

	zw := zip.NewWriter(w)

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := writeEntry(ctx, zw, i, f, open); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive, %w", err)
	}

	return nil
}

func writeEntry(ctx context.Context, zw *zip.Writer, index int, f *model.File, open OpenFunc) error {
	rc, err := open(ctx, f)
	if err != nil {
		return err
	}
	defer rc.Close()

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     EntryName(index, f),
		Method:   zip.Deflate,
		Modified: f.CreateDate.In(time.UTC),
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry, %w", err)
	}

	if _, err := io.Copy(entry, rc); err != nil {
		return fmt.Errorf("failed to write archive entry, %w", err)
	}

	return nil
}
