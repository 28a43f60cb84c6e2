package hexo

import (
	"context"
	"errors"
	"fmt"
)

// CacheType represents the type of schema cache backend.
type CacheType string

const (
	// CacheTypeFile stores one file per API in a directory.
	CacheTypeFile CacheType = "file"

	// CacheTypeMemory keeps schemas for the lifetime of the process.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS shares schemas through a NATS KV bucket.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeSQLite stores schemas in a SQLite database.
	CacheTypeSQLite CacheType = "sqlite"

	// CacheTypeNone disables caching.
	CacheTypeNone CacheType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrSQLitePathRequired   = errors.New("SQLite path required for SQLite cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
)

// SchemaCacheConfig configures the schema cache backend.
type SchemaCacheConfig struct {
	// Type is the cache backend type.
	Type CacheType

	// Dir is the directory for the file backend. Empty means the working directory.
	Dir string

	// SQLitePath is the database file for the SQLite backend.
	SQLitePath string

	// NATS configures the NATS KV backend.
	NATS *NATSKVConfig

	// Memory adds an in-process layer in front of a persistent backend.
	Memory bool
}

// DefaultSchemaCacheConfig returns a file cache in the working directory.
func DefaultSchemaCacheConfig() *SchemaCacheConfig {
	return &SchemaCacheConfig{
		Type: CacheTypeFile,
	}
}

// NewSchemaStoreFromConfig creates a schema store from configuration.
func NewSchemaStoreFromConfig(ctx context.Context, config *SchemaCacheConfig) (SchemaStore, error) {
	if config == nil {
		config = DefaultSchemaCacheConfig()
	}

	var (
		store SchemaStore
		err   error
	)

	switch config.Type {
	case CacheTypeFile, "":
		store = NewFileStore(config.Dir)

	case CacheTypeMemory:
		return NewMemoryStore(), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		store, err = NewNATSKVStore(config.NATS)

	case CacheTypeSQLite:
		if config.SQLitePath == "" {
			return nil, ErrSQLitePathRequired
		}

		store, err = NewSQLiteStore(ctx, config.SQLitePath)

	case CacheTypeNone:
		return NewNoOpStore(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}

	if err != nil {
		return nil, err
	}

	if config.Memory {
		return NewStoreChain(NewMemoryStore(), store), nil
	}

	return store, nil
}
