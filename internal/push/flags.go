// internal/push/flags.go
package push

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Flag keys persisted across page reloads.
const (
	FlagPromptDismissed      = "push_prompt_dismissed"
	FlagNotificationsEnabled = "push_notifications_enabled"
)

type flagRow struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (flagRow) TableName() string {
	return "push_flags"
}

// FlagStore is the durable local key-value store for push enablement
// flags. Values are the strings "true"/"false" on disk; each write is a
// single-row upsert, atomic for its key.
type FlagStore struct {
	db *gorm.DB
}

func OpenFlagStore(path string) (*FlagStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open flag store: %w", err)
	}
	if err := db.AutoMigrate(&flagRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate flag store: %w", err)
	}
	return &FlagStore{db: db}, nil
}

// Get returns the flag value; a missing key reads as false.
func (s *FlagStore) Get(key string) (bool, error) {
	var row flagRow
	err := s.db.First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read flag %s: %w", key, err)
	}
	return row.Value == "true", nil
}

// Set writes the flag value.
func (s *FlagStore) Set(key string, value bool) error {
	str := "false"
	if value {
		str = "true"
	}

	row := &flagRow{
		Key:       key,
		Value:     str,
		UpdatedAt: time.Now(),
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
}

// Ping verifies the underlying database is reachable.
func (s *FlagStore) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying database handle.
func (s *FlagStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
