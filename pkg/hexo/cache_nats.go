package hexo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Static errors for err113 compliance.
var (
	ErrNATSURLRequired = errors.New("NATS URL is required")
)

// DefaultNATSBucket is the KV bucket used when none is configured.
const DefaultNATSBucket = "hexo_schema_cache"

// NATSKVConfig configures the NATS JetStream KV schema store.
type NATSKVConfig struct {
	// URL of the NATS server, e.g. "nats://localhost:4222".
	URL string
	// Bucket is the KV bucket name. Created when missing.
	Bucket string
	// TTL expires cached schemas; zero keeps them until cleared.
	TTL time.Duration
	// Options are passed to nats.Connect.
	Options []nats.Option
}

// NATSKVStore shares discovered schemas between processes through a NATS
// JetStream key-value bucket.
type NATSKVStore struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKVStore connects to NATS and opens (or creates) the bucket.
func NewNATSKVStore(config *NATSKVConfig) (*NATSKVStore, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSURLRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = DefaultNATSBucket
	}

	conn, err := nats.Connect(config.URL, config.Options...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "hexo-client discovered resource schemas",
			TTL:         config.TTL,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	return &NATSKVStore{conn: conn, kv: kv}, nil
}

// NewNATSKVStoreFromBucket wraps an already opened bucket. Close does not
// close the caller's connection.
func NewNATSKVStoreFromBucket(kv nats.KeyValue) *NATSKVStore {
	return &NATSKVStore{kv: kv}
}

// Load implements SchemaStore.
func (s *NATSKVStore) Load(ctx context.Context, key string) (map[string]*Descriptor, bool, error) {
	entry, err := s.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading schema from NATS: %w", err)
	}

	descriptors, err := decodeSchema(entry.Value())
	if err != nil {
		return nil, false, err
	}

	return descriptors, true, nil
}

// Save implements SchemaStore.
func (s *NATSKVStore) Save(ctx context.Context, key string, descriptors map[string]*Descriptor) error {
	data, err := encodeSchema(key, descriptors)
	if err != nil {
		return err
	}

	_, err = s.kv.Put(key, data)
	if err != nil {
		return fmt.Errorf("writing schema to NATS: %w", err)
	}

	return nil
}

// Delete implements SchemaStore.
func (s *NATSKVStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting schema from NATS: %w", err)
	}

	return nil
}

// Close drains the connection opened by NewNATSKVStore.
func (s *NATSKVStore) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
