package hexo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS schema_cache (
	cache_key TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	saved_at  INTEGER NOT NULL
)`

// SQLiteStore keeps schemas in a SQLite database, for hosts that already
// keep client state in one file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite schema cache: %w", err)
	}

	_, err = db.ExecContext(ctx, sqliteSchema)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating schema_cache table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load implements SchemaStore.
func (s *SQLiteStore) Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error) {
	var payload []byte

	err := s.db.QueryRowContext(ctx, `SELECT payload FROM schema_cache WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading schema from sqlite: %w", err)
	}

	descriptors, err := decodeSchema(payload)
	if err != nil {
		return nil, false, err
	}

	return descriptors, true, nil
}

// Save implements SchemaStore.
func (s *SQLiteStore) Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error {
	data, err := encodeSchema(key, descriptors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schema_cache (cache_key, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing schema to sqlite: %w", err)
	}

	return nil
}

// Delete implements SchemaStore.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schema_cache WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting schema from sqlite: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("closing sqlite schema cache: %w", err)
	}

	return nil
}
