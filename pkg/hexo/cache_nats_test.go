package hexo_test

import (
	"sync"
	"testing"

	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// memoryKV is a nats.KeyValue backed by a map. Only the methods the store
// uses are implemented.
type memoryKV struct {
	nats.KeyValue

	mutex sync.Mutex
	data  map[string][]byte
	rev   uint64
}

type memoryEntry struct {
	nats.KeyValueEntry

	value []byte
}

func (e memoryEntry) Value() []byte {
	return e.value
}

func (kv *memoryKV) Get(key string) (nats.KeyValueEntry, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	value, ok := kv.data[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}

	return memoryEntry{value: value}, nil
}

func (kv *memoryKV) Put(key string, value []byte) (uint64, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	kv.rev++
	kv.data[key] = value

	return kv.rev, nil
}

func (kv *memoryKV) Delete(key string, _ ...nats.DeleteOpt) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if _, ok := kv.data[key]; !ok {
		return nats.ErrKeyNotFound
	}

	delete(kv.data, key)

	return nil
}

func TestNATSKVStore(t *testing.T) {
	t.Parallel()

	store := hexo.NewNATSKVStoreFromBucket(&memoryKV{data: make(map[string][]byte)})

	assertRoundTrip(t, store)
	require.NoError(t, store.Close())
}

func TestNewNATSKVStore_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := hexo.NewNATSKVStore(&hexo.NATSKVConfig{})
	require.ErrorIs(t, err, hexo.ErrNATSURLRequired)

	_, err = hexo.NewNATSKVStore(nil)
	require.ErrorIs(t, err, hexo.ErrNATSURLRequired)
}
