package service

import (
	"bitwise74/docs-api/cloudflare"
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/storage"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

// Mirror copies the ciphertext blobs to an R2 bucket. Objects are stored as
// is, the bucket never sees plaintext
type Mirror struct {
	R2    *cloudflare.R2Client
	Store *storage.FileStore
}

func NewMirror(r2 *cloudflare.R2Client, store *storage.FileStore) *Mirror {
	return &Mirror{R2: r2, Store: store}
}

// objectKeys returns the keys of a file and all its variants
func objectKeys(fileID string) []string {
	keys := []string{fileID}
	for _, v := range storage.Variants {
		keys = append(keys, fileID+"_"+string(v))
	}

	return keys
}

func (m *Mirror) upload(ctx context.Context, e event.Event) error {
	ev := e.(event.FileUpdated)

	for i, key := range objectKeys(ev.FileID) {
		p := m.Store.BlobPath(key)

		err := m.put(ctx, key, p)
		if err == nil {
			continue
		}

		// Variants are optional
		if i > 0 && errors.Is(err, os.ErrNotExist) {
			continue
		}

		return err
	}

	zap.L().Debug("Mirrored file", zap.String("file_id", ev.FileID))
	return nil
}

func (m *Mirror) put(ctx context.Context, key, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open blob, %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat blob, %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        m.R2.Bucket,
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String("application/octet-stream"),
	}

	if stat.Size() > minMultipartSize {
		uploader := manager.NewUploader(m.R2.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = m.R2.C.PutObject(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("failed to upload blob to R2, %w", err)
	}

	return nil
}

func (m *Mirror) delete(ctx context.Context, e event.Event) error {
	ev := e.(event.FileDeleted)

	keys := objectKeys(ev.FileID)
	objects := make([]types.ObjectIdentifier, len(keys))
	for i, key := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(key)}
	}

	_, err := m.R2.C.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: m.R2.Bucket,
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete blobs from R2, %w", err)
	}

	return nil
}
