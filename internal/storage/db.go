package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/quorkbot/quork/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
type DB struct {
	*gorm.DB
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig) (*DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique-violation detection relies on gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{db}, nil
}

// Connect opens the database with a bounded number of retries. When every
// attempt fails it returns the last error; callers are expected to keep the
// rest of the system running with quote features disabled.
func Connect(cfg *config.DatabaseConfig) (*DB, error) {
	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		db, err := New(cfg)
		if err == nil {
			slog.Info("database connection established")
			return db, nil
		}
		lastErr = err
		slog.Warn("database connection attempt failed",
			"attempt", attempt,
			"max_attempts", retries,
			"error", err,
		)
		if attempt < retries {
			time.Sleep(cfg.RetryDelay)
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", retries, lastErr)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// AutoMigrate runs auto-migration for the given models
func (db *DB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}
