package hexo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCorruptSchemaCache = errors.New("corrupt schema cache entry")
)

// SchemaStore persists discovered descriptors keyed by SchemaCacheKey.
//
// Load reports a miss as (nil, false, nil); an error means the backend
// failed, which callers treat like a miss.
type SchemaStore interface {
	Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error)
	Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error
	Delete(ctx context.Context, key string) error
}

var nonWordRun = regexp.MustCompile(`\W+`)

// SchemaCacheKey derives a filesystem-safe key from a normalized base URL
// and API version, e.g. "api_stash_https.api.example.com.v1".
func SchemaCacheKey(baseURL, apiVersion string) string {
	key := constants.SchemaCachePrefix + "_" + nonWordRun.ReplaceAllString(baseURL+":"+apiVersion, ".")

	return strings.TrimRight(key, ".")
}

// schemaDocument is the serialized form shared by every backend.
type schemaDocument struct {
	Key       string                 `json:"key"`
	SavedAt   time.Time              `json:"saved_at"`
	Resources map[string]*Descriptor `json:"resources"`
}

func encodeSchema(key string, descriptors map[string]*Descriptor) ([]byte, error) {
	data, err := json.Marshal(schemaDocument{
		Key:       key,
		SavedAt:   time.Now().UTC(),
		Resources: descriptors,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding schema cache: %w", err)
	}

	return data, nil
}

func decodeSchema(data []byte) (map[string]*Descriptor, error) {
	var doc schemaDocument

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSchemaCache, err)
	}

	if len(doc.Resources) == 0 {
		return nil, ErrCorruptSchemaCache
	}

	return doc.Resources, nil
}

// MemoryStore keeps encoded schemas in process memory.
type MemoryStore struct {
	mutex   sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Load implements SchemaStore.
func (s *MemoryStore) Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error) {
	s.mutex.RLock()
	data, ok := s.entries[key]
	s.mutex.RUnlock()

	if !ok {
		return nil, false, nil
	}

	descriptors, err := decodeSchema(data)
	if err != nil {
		return nil, false, err
	}

	return descriptors, true, nil
}

// Save implements SchemaStore.
func (s *MemoryStore) Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error {
	data, err := encodeSchema(key, descriptors)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	s.entries[key] = data
	s.mutex.Unlock()

	return nil
}

// Delete implements SchemaStore.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	delete(s.entries, key)
	s.mutex.Unlock()

	return nil
}

// FileStore keeps one file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store writing into dir. An empty dir means the
// working directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}

	return &FileStore{dir: dir}
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Load implements SchemaStore.
func (s *FileStore) Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error) {
	// The file name is derived from SchemaCacheKey and cannot traverse.
	// #nosec G304
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading schema cache: %w", err)
	}

	descriptors, err := decodeSchema(data)
	if err != nil {
		return nil, false, err
	}

	return descriptors, true, nil
}

// Save implements SchemaStore.
func (s *FileStore) Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error {
	data, err := encodeSchema(key, descriptors)
	if err != nil {
		return err
	}

	err = os.MkdirAll(s.dir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating schema cache directory: %w", err)
	}

	err = os.WriteFile(s.Path(key), data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing schema cache: %w", err)
	}

	return nil
}

// Delete implements SchemaStore.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing schema cache: %w", err)
	}

	return nil
}

// NoOpStore never caches.
type NoOpStore struct{}

// NewNoOpStore creates a new no-op store.
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// Load always misses.
func (s *NoOpStore) Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error) {
	return nil, false, nil
}

// Save does nothing.
func (s *NoOpStore) Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error {
	return nil
}

// Delete does nothing.
func (s *NoOpStore) Delete(ctx context.Context, key string) error {
	return nil
}

// StoreChain layers stores (L1, L2, ...). A hit in a later store is copied
// into the earlier ones.
type StoreChain struct {
	stores []SchemaStore
}

// NewStoreChain creates a new store chain.
func NewStoreChain(stores ...SchemaStore) *StoreChain {
	return &StoreChain{stores: stores}
}

// Load implements SchemaStore.
func (c *StoreChain) Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error) {
	var lastErr error

	for i, store := range c.stores {
		descriptors, ok, err := store.Load(ctx, key)
		if err != nil {
			lastErr = err

			continue
		}

		if !ok {
			continue
		}

		for j := range i {
			_ = c.stores[j].Save(ctx, key, descriptors)
		}

		return descriptors, true, nil
	}

	return nil, false, lastErr
}

// Save stores the schema in every store.
func (c *StoreChain) Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error {
	var lastErr error

	for _, store := range c.stores {
		err := store.Save(ctx, key, descriptors)
		if err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Delete removes the schema from every store.
func (c *StoreChain) Delete(ctx context.Context, key string) error {
	var lastErr error

	for _, store := range c.stores {
		err := store.Delete(ctx, key)
		if err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Close closes every store in the chain that holds resources.
func (c *StoreChain) Close() error {
	var errs []error

	for _, store := range c.stores {
		if closer, ok := store.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}

	return errors.Join(errs...)
}
