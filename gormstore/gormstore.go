// Package gormstore provides a gorm key-value storage implementation.
//
// GORMStore allows storing, retrieving, and deleting client state keyed by
// a string. Any gorm dialect works; the CLI opens it with sqlite for a local
// file that survives restarts, or with postgres for a shared database.
package gormstore

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GORMStore is a gorm backed storage for client state.
type GORMStore struct {
	db *gorm.DB
}

// entry represents a single stored value.
type entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:191"`
	Data      []byte
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "kv_entries"
}

// New creates and returns a new GORMStore instance.
// If the kv_entries table doesn't exist it is created.
func New(db *gorm.DB) (*GORMStore, error) {
	s := &GORMStore{db: db}
	return s, db.AutoMigrate(&entry{})
}

// Open opens a database with the named dialect ("sqlite" or "postgres")
// and returns a GORMStore on top of it.
func Open(dialect, dsn string) (*GORMStore, error) {
	var dialector gorm.Dialector
	switch dialect {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}

	return New(db)
}

// Get retrieves the data associated with the given key. Returns the data,
// a boolean indicating whether the key was found, and an error.
func (s *GORMStore) Get(key string) ([]byte, bool, error) {
	e := &entry{}
	tx := s.db.Where("entry_key = ?", key).Limit(1).Find(e)
	if tx.Error != nil || tx.RowsAffected == 0 {
		return nil, false, tx.Error
	}

	return e.Data, true, nil
}

// Set stores the data under the given key. If a value with the same key
// already exists, it is overwritten.
func (s *GORMStore) Set(key string, data []byte) error {
	e := &entry{}
	tx := s.db.Where(entry{Key: key}).Assign(entry{Data: data}).FirstOrCreate(e)
	return tx.Error
}

// Delete removes the data associated with the given key.
func (s *GORMStore) Delete(key string) error {
	tx := s.db.Delete(&entry{}, "entry_key = ?", key)
	return tx.Error
}
