package db

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a file-backed SQLite database under dir for testing.
// A real file (rather than :memory:) keeps every pooled connection on the
// same database, which the concurrent pipeline tests rely on.
func SetupTestDB(dir string) (*gorm.DB, error) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "reviews_test.db")}

	gdb, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := gdb.AutoMigrate(&model.Store{}, &model.Review{}); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return gdb, nil
}

// CleanupTestDB cleans up the test database
func CleanupTestDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}
