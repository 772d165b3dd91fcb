package kv

import (
	"slices"
	"sync"
)

// MemoryBucket keeps encoded documents in a map. Values round-trip through
// JSON so it behaves like SQLiteBucket.
type MemoryBucket struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryBucket returns an empty in-memory bucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{docs: make(map[string][]byte)}
}

func (b *MemoryBucket) Put(key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.docs[key] = data
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) Get(key string, out any) (bool, error) {
	b.mu.RLock()
	data, ok := b.docs[key]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, decode(key, data, out)
}

func (b *MemoryBucket) Delete(key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.docs[key]
	delete(b.docs, key)
	return ok, nil
}

func (b *MemoryBucket) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.docs))
	for k := range b.docs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
