package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStorage keeps documents in process memory. Used for tests and
// the demo seed.
type MemoryStorage struct {
	mu   sync.RWMutex
	docs map[string]memoryDocument

	// FailWrites makes every Write return this error when set.
	FailWrites error
}

type memoryDocument struct {
	data     []byte
	modified time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string]memoryDocument)}
}

func (m *MemoryStorage) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), doc.data...), nil
}

func (m *MemoryStorage) Write(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.docs[key] = memoryDocument{data: append([]byte(nil), data...), modified: time.Now()}
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, key)
	return nil
}

func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.docs[key]
	return ok, nil
}

func (m *MemoryStorage) GetMetadata(ctx context.Context, key string) (DocumentMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[key]
	if !ok {
		return DocumentMetadata{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return DocumentMetadata{Size: int64(len(doc.data)), LastModified: doc.modified}, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
