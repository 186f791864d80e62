// Package event delivers events raised by request handlers to background
// handlers once the triggering operation has committed
package event

import (
	"os"

	"go.uber.org/zap"
)

type Type string

const (
	TypeFileUpdated     Type = "file_updated"
	TypeFileDeleted     Type = "file_deleted"
	TypeDocumentUpdated Type = "document_updated"
)

type Event interface {
	Type() Type
	// Actor is the user whose action raised the event
	Actor() string
}

// FileUpdated is raised when a file got new content or was attached to a
// document. UnencryptedPath points at a temp plaintext copy that is removed
// once every handler ran
type FileUpdated struct {
	UserID          string
	FileID          string
	UnencryptedPath string
	Language        string
}

func (FileUpdated) Type() Type      { return TypeFileUpdated }
func (e FileUpdated) Actor() string { return e.UserID }

func (e FileUpdated) Release() {
	if e.UnencryptedPath == "" {
		return
	}

	if err := os.Remove(e.UnencryptedPath); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("Failed to remove plaintext temp file", zap.String("path", e.UnencryptedPath), zap.Error(err))
	}
}

type FileDeleted struct {
	UserID string
	// Owner of the deleted bytes, credited back the storage
	OwnerID string
	FileID  string
	// Plaintext size of the deleted file
	Size int64
}

func (FileDeleted) Type() Type      { return TypeFileDeleted }
func (e FileDeleted) Actor() string { return e.UserID }

type DocumentUpdated struct {
	UserID     string
	DocumentID string
}

func (DocumentUpdated) Type() Type      { return TypeDocumentUpdated }
func (e DocumentUpdated) Actor() string { return e.UserID }

// releaser is implemented by events holding resources
type releaser interface {
	Release()
}

func release(events []Event) {
	for _, e := range events {
		if r, ok := e.(releaser); ok {
			r.Release()
		}
	}
}
