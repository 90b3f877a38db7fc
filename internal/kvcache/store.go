// Package kvcache provides a key/value store saved on disk using SQLite,
// used to cache upstream API responses across survey runs.
package kvcache

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	apperrors "phenosurvey/internal/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	contents BLOB
);`

// Store is a durable key/value cache backed by a SQLite file.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the cache database at the given path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to open cache database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "failed to initialize cache schema")
	}
	return &Store{db: db}, nil
}

// Lookup returns the cached contents for a key, reporting whether it was
// present.
func (s *Store) Lookup(key string) ([]byte, bool, error) {
	var contents []byte
	err := s.db.Get(&contents, `SELECT contents FROM cache WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, "cache lookup failed")
	}
	return contents, true, nil
}

// Put stores contents under a key, replacing any previous entry.
func (s *Store) Put(key string, contents []byte) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO cache (key, contents) VALUES (?, ?)`, key, contents)
	return apperrors.Wrap(err, "cache write failed")
}

// Drop removes a key from the cache.
func (s *Store) Drop(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache WHERE key = ?`, key)
	return apperrors.Wrap(err, "cache delete failed")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
