// Package mysqlstore provides a MySQL key-value storage implementation.
//
// MySQLStore allows storing, retrieving, and deleting client state keyed
// by a string, using database/sql with the go-sql-driver/mysql driver.
package mysqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLStore struct {
	db *sql.DB
}

// New returns a MySQLStore on top of db. If the kv_entries table doesn't
// exist it is created.
func New(db *sql.DB) (*MySQLStore, error) {
	err := createTable(db)
	return &MySQLStore{db: db}, err
}

// Open connects to the database described by dsn and returns a MySQLStore.
func Open(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach mysql: %w", err)
	}

	return New(db)
}

// Get retrieves the data associated with the given key. Returns the data,
// a boolean indicating whether the key was found, and an error.
func (s *MySQLStore) Get(key string) ([]byte, bool, error) {
	stmt := "SELECT data FROM kv_entries WHERE entry_key = ?"
	row := s.db.QueryRow(stmt, key)

	var data []byte
	err := row.Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the data under the given key. If a value with the same key
// already exists, it is overwritten.
func (s *MySQLStore) Set(key string, data []byte) error {
	stmt := "INSERT INTO kv_entries(entry_key, data, updated_at) VALUES (?, ?, UTC_TIMESTAMP(6)) ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)"
	_, err := s.db.Exec(stmt, key, data)
	return err
}

// Delete removes the data associated with the given key.
func (s *MySQLStore) Delete(key string) error {
	stmt := "DELETE FROM kv_entries WHERE entry_key = ?"
	_, err := s.db.Exec(stmt, key)
	return err
}

// Close closes the underlying database.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv_entries (
			entry_key VARCHAR(191) COLLATE utf8mb4_bin PRIMARY KEY,
			data MEDIUMBLOB NOT NULL,
			updated_at TIMESTAMP(6) NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}
