package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the sqlite database at path and runs migrations.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific errors.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: failed to access connection pool: %w", err)
	}
	// sqlite allows a single writer; more connections just queue on the
	// file lock and return SQLITE_BUSY under webhook bursts.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Donation{}, &WebhookEvent{}); err != nil {
		return nil, fmt.Errorf("storage: failed to migrate schema: %w", err)
	}

	return db, nil
}
