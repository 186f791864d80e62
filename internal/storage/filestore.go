// Package storage keeps file records and their encrypted blobs in sync
package storage

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/lockset"
	"bitwise74/docs-api/internal/metrics"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/repository"
	"bitwise74/docs-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker is told about files handed to the background pipeline
type Tracker interface {
	Start(fileID string)
}

type FileStore struct {
	root      string
	repo      *repository.Repository
	enc       *security.Encrypter
	tracker   Tracker
	renderer  Renderer
	lineages  *lockset.Set
	documents *lockset.Set
}

type Options struct {
	// Directory holding the blobs
	Root      string
	Encrypter *security.Encrypter
	Tracker   Tracker
	Renderer  Renderer
}

func New(repo *repository.Repository, o Options) (*FileStore, error) {
	if o.Root == "" {
		return nil, errors.New("no storage root provided")
	}

	if err := os.MkdirAll(o.Root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	if o.Encrypter == nil {
		o.Encrypter = security.NewEncrypter("")
	}

	return &FileStore{
		root:      o.Root,
		repo:      repo,
		enc:       o.Encrypter,
		tracker:   o.Tracker,
		renderer:  o.Renderer,
		lineages:  lockset.New(),
		documents: lockset.New(),
	}, nil
}

// BlobPath returns where the ciphertext of a file lives
func (s *FileStore) BlobPath(id string) string {
	return filepath.Join(s.root, id)
}

func (s *FileStore) VariantPath(id string, v Variant) string {
	return filepath.Join(s.root, id+"_"+string(v))
}

type CreateParams struct {
	Name string
	// File this upload replaces, empty for a new lineage
	PreviousFileID string
	// Plaintext staged by the caller. Ownership moves to the store on
	// success and the file is removed once background processing is done
	StagedPath string
	Size       int64
	OwnerID    string
	// Overrides the document inherited from the previous version
	DocumentID *string
	// Extraction hint of the target document
	Language string
}

func (p *CreateParams) validate() error {
	if p.StagedPath == "" {
		return fmt.Errorf("no staged file: %w", apperr.ErrValidation)
	}
	if p.OwnerID == "" {
		return fmt.Errorf("no owner: %w", apperr.ErrValidation)
	}
	if len([]rune(p.Name)) > 200 {
		return fmt.Errorf("name longer than 200 characters: %w", apperr.ErrValidation)
	}
	if p.Size < 0 {
		return fmt.Errorf("negative size: %w", apperr.ErrValidation)
	}

	return nil
}

// DetectMime sniffs the content of a file and returns its mime type without
// parameters
func DetectMime(p string) (string, error) {
	m, err := mimetype.DetectFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to detect mime type, %w", err)
	}

	base, _, _ := strings.Cut(m.String(), ";")
	return strings.TrimSpace(base), nil
}

// Create encrypts a staged upload into the store and records it. Either the
// blob and the record both exist afterwards or neither does
func (s *FileStore) Create(ctx context.Context, p CreateParams, outbox *event.Outbox) (*model.File, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	mime, err := DetectMime(p.StagedPath)
	if err != nil {
		return nil, err
	}

	f := &model.File{
		ID:         uuid.NewString(),
		UserID:     p.OwnerID,
		Latest:     true,
		MimeType:   mime,
		Size:       p.Size,
		CreateDate: time.Now(),
	}
	if p.Name != "" {
		f.Name = &p.Name
	}

	var head *model.File
	if p.PreviousFileID != "" {
		prev, err := s.repo.Files.Get(ctx, p.PreviousFileID)
		if err != nil {
			return nil, err
		}

		unlock := s.lineages.Lock(prev.LineageID())
		defer unlock()

		versions, err := s.repo.Files.ListVersions(ctx, prev.LineageID())
		if err != nil {
			return nil, err
		}
		head = versions[0]

		lineage := prev.LineageID()
		f.VersionID = &lineage
		f.Version = head.Version + 1
		f.DocumentID = head.DocumentID
		f.Order = head.Order
	}

	if p.DocumentID != nil {
		f.DocumentID = p.DocumentID
	}

	if f.DocumentID != nil {
		unlock := s.documents.Lock(*f.DocumentID)
		defer unlock()

		if head == nil || head.DocumentID == nil || *head.DocumentID != *f.DocumentID {
			n, err := s.repo.Files.NextOrder(ctx, *f.DocumentID)
			if err != nil {
				return nil, err
			}
			f.Order = n
		}
	}

	stats, err := s.repo.Stats.Get(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	if stats.UsedStorage+p.Size > stats.MaxStorage {
		return nil, fmt.Errorf("%d bytes used of %d: %w", stats.UsedStorage, stats.MaxStorage, apperr.ErrQuota)
	}

	key, err := s.repo.Users.PrivateKey(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}

	blob := s.BlobPath(f.ID)
	if err := s.enc.EncryptFile(p.StagedPath, key, blob); err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Stats.Reserve(ctx, p.OwnerID, p.Size); err != nil {
			return err
		}

		if head != nil {
			head.Latest = false
			if err := tx.Files.Update(ctx, head); err != nil {
				return err
			}
		}

		return tx.Files.Create(ctx, f)
	})
	if err != nil {
		if rmErr := os.Remove(blob); rmErr != nil {
			zap.L().Error("Failed to remove blob of failed upload", zap.String("path", blob), zap.Error(rmErr))
		}
		return nil, err
	}

	metrics.FilesIngested.Inc()
	metrics.BytesIngested.Add(float64(p.Size))

	s.emitUpdated(outbox, f, p.OwnerID, p.StagedPath, p.Language)
	if f.DocumentID != nil {
		outbox.Emit(event.DocumentUpdated{UserID: p.OwnerID, DocumentID: *f.DocumentID})
	}

	zap.L().Debug("File stored",
		zap.String("file_id", f.ID),
		zap.String("mime", f.MimeType),
		zap.Int("version", f.Version))

	return f, nil
}

func (s *FileStore) emitUpdated(outbox *event.Outbox, f *model.File, actorID, plainPath, language string) {
	if s.tracker != nil {
		s.tracker.Start(f.ID)
	}

	outbox.Emit(event.FileUpdated{
		UserID:          actorID,
		FileID:          f.ID,
		UnencryptedPath: plainPath,
		Language:        language,
	})
}

func (s *FileStore) Get(ctx context.Context, id string) (*model.File, error) {
	return s.repo.Files.Get(ctx, id)
}

func (s *FileStore) GetOwned(ctx context.Context, id, ownerID string) (*model.File, error) {
	return s.repo.Files.GetOwned(ctx, id, ownerID)
}

func (s *FileStore) GetMany(ctx context.Context, ids []string) ([]*model.File, error) {
	return s.repo.Files.GetMany(ctx, ids)
}

// ListByDocument returns the files of a document by order. Without a
// document it returns the caller's orphans
func (s *FileStore) ListByDocument(ctx context.Context, callerID string, documentID *string) ([]*model.File, error) {
	if documentID == nil {
		return s.repo.Files.ListOrphans(ctx, callerID)
	}

	return s.repo.Files.ListByDocument(ctx, *documentID)
}

// ListVersions returns every version of a lineage, newest first
func (s *FileStore) ListVersions(ctx context.Context, lineageID string) ([]*model.File, error) {
	return s.repo.Files.ListVersions(ctx, lineageID)
}

// Update stores a new name, order or document of a file
func (s *FileStore) Update(ctx context.Context, f *model.File) error {
	return s.repo.Files.Update(ctx, f)
}

// Attach moves an orphan into a document, placing it last
func (s *FileStore) Attach(ctx context.Context, fileID, ownerID, documentID, language string, outbox *event.Outbox) (*model.File, error) {
	f, err := s.repo.Files.GetOwned(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}

	unlockLineage := s.lineages.Lock(f.LineageID())
	defer unlockLineage()

	// A version created or attached while waiting for the lock is visible now
	f, err = s.repo.Files.GetOwned(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}

	if !f.IsOrphan() {
		return nil, fmt.Errorf("file %s is not an orphan: %w", fileID, apperr.ErrConflict)
	}

	key, err := s.repo.Users.PrivateKey(ctx, f.UserID)
	if err != nil {
		return nil, err
	}

	plain, err := s.enc.DecryptFile(s.BlobPath(f.ID), key)
	if err != nil {
		return nil, err
	}

	unlockDocument := s.documents.Lock(documentID)
	defer unlockDocument()

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		n, err := tx.Files.NextOrder(ctx, documentID)
		if err != nil {
			return err
		}

		versions, err := tx.Files.ListVersions(ctx, f.LineageID())
		if err != nil {
			return err
		}

		for _, v := range versions {
			v.DocumentID = &documentID
			v.Order = n
			if err := tx.Files.Update(ctx, v); err != nil {
				return err
			}
		}

		f.DocumentID = &documentID
		f.Order = n
		return nil
	})
	if err != nil {
		os.Remove(plain)
		return nil, err
	}

	s.emitUpdated(outbox, f, ownerID, plain, language)
	outbox.Emit(event.DocumentUpdated{UserID: ownerID, DocumentID: documentID})

	return f, nil
}

// Reprocess sends a file through the background pipeline again
func (s *FileStore) Reprocess(ctx context.Context, f *model.File, actorID, language string, outbox *event.Outbox) error {
	key, err := s.repo.Users.PrivateKey(ctx, f.UserID)
	if err != nil {
		return err
	}

	plain, err := s.enc.DecryptFile(s.BlobPath(f.ID), key)
	if err != nil {
		return err
	}

	s.emitUpdated(outbox, f, actorID, plain, language)
	return nil
}

// Delete soft deletes the lineage of a file and removes its blobs. Failing to
// remove a blob is logged only, the records are gone already
func (s *FileStore) Delete(ctx context.Context, id, requesterID string, outbox *event.Outbox) error {
	f, err := s.repo.Files.Get(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.lineages.Lock(f.LineageID())
	defer unlock()

	versions, err := s.repo.Files.ListVersions(ctx, f.LineageID())
	if err != nil {
		return err
	}

	ids := make([]string, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}

	if err := s.repo.Files.Delete(ctx, ids...); err != nil {
		return err
	}

	for _, v := range versions {
		s.removeBlobs(v.ID)
		metrics.FilesDeleted.Inc()

		outbox.Emit(event.FileDeleted{
			UserID:  requesterID,
			OwnerID: v.UserID,
			FileID:  v.ID,
			Size:    v.Size,
		})
	}

	if f.DocumentID != nil {
		outbox.Emit(event.DocumentUpdated{UserID: requesterID, DocumentID: *f.DocumentID})
	}

	return nil
}

func (s *FileStore) removeBlobs(id string) {
	if err := os.Remove(s.BlobPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.L().Error("Failed to remove blob", zap.String("file_id", id), zap.Error(err))
	}

	for _, v := range Variants {
		if err := os.Remove(s.VariantPath(id, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("Failed to remove variant blob", zap.String("file_id", id), zap.String("variant", string(v)), zap.Error(err))
		}
	}
}

// Reorder sets the order of every listed file of a document to the last
// position its id appears at. Files missing from the list keep their order
func (s *FileStore) Reorder(ctx context.Context, actorID, documentID string, orderedIDs []string, outbox *event.Outbox) error {
	unlock := s.documents.Lock(documentID)
	defer unlock()

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		files, err := tx.Files.ListByDocument(ctx, documentID)
		if err != nil {
			return err
		}

		for _, f := range files {
			order := lastIndex(orderedIDs, f.ID)
			if order == -1 || order == f.Order {
				continue
			}

			f.Order = order
			if err := tx.Files.Update(ctx, f); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	outbox.Emit(event.DocumentUpdated{UserID: actorID, DocumentID: documentID})
	return nil
}

func lastIndex(ids []string, id string) int {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			return i
		}
	}

	return -1
}

// Open returns the decrypted content of a file
func (s *FileStore) Open(ctx context.Context, f *model.File) (io.ReadCloser, error) {
	key, err := s.repo.Users.PrivateKey(ctx, f.UserID)
	if err != nil {
		return nil, err
	}

	return s.enc.OpenStream(s.BlobPath(f.ID), key)
}

// ExpiredOrphans returns orphans older than ttl
func (s *FileStore) ExpiredOrphans(ctx context.Context, ttl time.Duration) ([]*model.File, error) {
	return s.repo.Files.ListExpiredOrphans(ctx, time.Now().Add(-ttl))
}
