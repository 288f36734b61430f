package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps records in process memory. Used by tests and the
// "memory" storage driver; contents are lost on exit.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (that *MemoryStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	value, ok := that.records[key]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), value...), true, nil
}

func (that *MemoryStorage) Commit(_ context.Context, writes []Write) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, write := range writes {
		that.records[write.Key] = append([]byte(nil), write.Value...)
	}

	return nil
}

func (that *MemoryStorage) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.records)
}

func (that *MemoryStorage) Close() error {
	return nil
}
