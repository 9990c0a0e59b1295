package db

import (
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"gorm.io/gorm"
)

// Migrate creates the stores/reviews tables and their indexes. Safe to run on
// every start.
func Migrate(gdb *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.Store{},
		&model.Review{},
	}

	if err := gdb.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
