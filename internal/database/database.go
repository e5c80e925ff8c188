package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/healthtrackhq/backend/internal/accounts"
	"github.com/healthtrackhq/backend/internal/cache"
	"github.com/healthtrackhq/backend/internal/nutrition"
	"github.com/healthtrackhq/backend/internal/tracker"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open establishes the database connection and performs schema migrations.
// When dsn is set it connects to Postgres, otherwise it opens the SQLite
// file at path.
func Open(path, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if dsn != "" {
		return OpenPostgres(dsn, logger)
	}
	return OpenSQLite(path, logger)
}

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := initialize(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized",
			zap.String("driver", "sqlite"),
			zap.String("path", path))
	}
	return db, nil
}

// OpenPostgres establishes a Postgres connection and performs schema migrations.
func OpenPostgres(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := initialize(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", "postgres"))
	}
	return db, nil
}

func initialize(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(
		&accounts.User{},
		&tracker.Meal{},
		&tracker.Activity{},
		&tracker.Vitals{},
		&tracker.DailySummary{},
		&cache.Entry{},
		&nutrition.FoodFact{},
		&migrationRecord{},
	); err != nil {
		return err
	}
	return applyMigrations(db, logger)
}
