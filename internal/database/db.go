package database

import (
	"backend/internal/model"
	"backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM and migrates the
// handful of relational tables: users for authentication and the snapshot
// rows the ledgers persist into.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&storage.LedgerSnapshot{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
