package db

import (
	"fmt"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	appLogger "github.com/ikkim/lunchmap-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. SQLite is the default: a single
// file in WAL mode so readers see committed snapshots while a batch is being
// written.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	appLogger.Info("Connecting to database", map[string]interface{}{
		"driver": cfg.Driver,
		"path":   cfg.Path,
		"host":   cfg.Host,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent), // Use silent mode, we'll use our own logger
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	maxOpen := 100
	if IsSQLite(gdb) {
		// one writer at a time; a few readers alongside it under WAL
		maxOpen = 4
	}
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetMaxOpenConns(maxOpen)

	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"max_open_conns": maxOpen,
	})
	return gdb, nil
}

// Close closes the database connection
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsSQLite reports whether gdb talks to SQLite.
func IsSQLite(gdb *gorm.DB) bool {
	return gdb.Dialector.Name() == "sqlite"
}

// Checkpoint truncates the SQLite write-ahead log after a batch so recovery
// after a crash stays short. Other drivers manage their own logs.
func Checkpoint(gdb *gorm.DB) error {
	if !IsSQLite(gdb) {
		return nil
	}
	if err := gdb.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}
