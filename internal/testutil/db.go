// Package testutil holds helpers shared by the package tests
package testutil

import (
	"bitwise74/docs-api/db"
	"bitwise74/docs-api/internal/model"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database living in the test's temp dir
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", filepath.Join(t.TempDir(), "test.db"))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return conn
}

// CreateUser stores a user with the given key and quota
func CreateUser(t testing.TB, conn *gorm.DB, username, key string, quota int64) *model.User {
	t.Helper()

	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "unused",
		PrivateKey:   key,
		CreateDate:   time.Now(),
		Stats:        model.Stats{MaxStorage: quota},
	}
	require.NoError(t, conn.Create(u).Error)

	return u
}

// CreateDocument stores a document owned by userID and grants the owner
// READ and WRITE on it
func CreateDocument(t testing.TB, conn *gorm.DB, userID, title string) *model.Document {
	t.Helper()

	now := time.Now()
	d := &model.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Language:   "eng",
		CreateDate: now,
		UpdateDate: now,
	}
	require.NoError(t, conn.Create(d).Error)

	Grant(t, conn, d.ID, userID, model.PermRead, model.PermWrite)
	return d
}

// Grant gives targetID the permissions on a document
func Grant(t testing.TB, conn *gorm.DB, documentID, targetID string, perms ...model.PermType) {
	t.Helper()

	for _, p := range perms {
		require.NoError(t, conn.Create(&model.ACL{Perm: p, TargetID: targetID, DocumentID: documentID}).Error)
	}
}
