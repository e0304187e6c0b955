// Package storage provides the durable blob stores the ledgers serialize
// into. The contract is a plain key-value store: one JSON document per ledger.
package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerSnapshot is one persisted ledger document.
type LedgerSnapshot struct {
	Key       string    `gorm:"type:varchar(50);primaryKey" json:"key"`
	Data      []byte    `gorm:"type:jsonb;not null" json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GormStore keeps snapshots in PostgreSQL, one row per key.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load returns the stored blob, or (nil, nil) on a cold start.
func (s *GormStore) Load(ctx context.Context, key string) ([]byte, error) {
	var snap LedgerSnapshot
	err := s.db.WithContext(ctx).First(&snap, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

// Save upserts the blob for the key.
func (s *GormStore) Save(ctx context.Context, key string, data []byte) error {
	snap := LedgerSnapshot{Key: key, Data: data, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&snap).Error
}
