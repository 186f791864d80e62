// Package db opens the database the service keeps its metadata in
package db

import (
	"bitwise74/docs-api/config"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/pkg/util"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the configured database and migrates every model
func New(c *config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch c.Driver {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	default:
		// If running in a container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInContainer() && c.DSN != ":memory:" {
			if _, err := os.Stat(c.DSN); errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", c.DSN)
			}
		}

		dialector = sqlite.Open(c.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", c.Driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	zap.L().Debug("Database ready", zap.String("driver", c.Driver))
	return db, nil
}

// Migrate creates or updates the tables of every model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}
