package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/postgres/v3"
)

// KVStorage adapts a fiber.Storage key/value store to document storage.
// The postgres backend is the gofiber postgres storage.
type KVStorage struct {
	kv fiber.Storage
}

func NewKVStorage(kv fiber.Storage) *KVStorage {
	return &KVStorage{kv: kv}
}

func NewPostgresStorage(cfg PostgresConfig) *KVStorage {
	table := cfg.Table
	if table == "" {
		table = "family_documents"
	}

	return NewKVStorage(postgres.New(postgres.Config{
		ConnectionURI: cfg.ConnectionURI,
		Table:         table,
		GCInterval:    time.Hour,
	}))
}

func (s *KVStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	// fiber.Storage reports a missing key as nil data without an error.
	if data == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return data, nil
}

// Write stores the document without expiry.
func (s *KVStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := s.kv.Set(key, data, 0); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *KVStorage) Exists(ctx context.Context, key string) (bool, error) {
	data, err := s.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to read document: %w", err)
	}
	return data != nil, nil
}

func (s *KVStorage) GetMetadata(ctx context.Context, key string) (DocumentMetadata, error) {
	data, err := s.Read(ctx, key)
	if err != nil {
		return DocumentMetadata{}, err
	}
	return DocumentMetadata{Size: int64(len(data))}, nil
}

func (s *KVStorage) Close() error {
	return s.kv.Close()
}
