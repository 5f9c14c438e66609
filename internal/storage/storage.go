package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Storage keeps whole documents addressed by key. Write replaces the
// document in one step; readers never observe a partial write.
type Storage interface {
	// Read returns the document, or ErrNotFound when it was never written.
	Read(ctx context.Context, key string) ([]byte, error)

	Write(ctx context.Context, key string, data []byte) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	GetMetadata(ctx context.Context, key string) (DocumentMetadata, error)

	Close() error
}

type DocumentMetadata struct {
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified,omitempty"`
	ETag         string    `json:"etag,omitempty"`
}

type StorageType string

const (
	StorageTypeLocal    StorageType = "local"
	StorageTypeS3       StorageType = "s3"
	StorageTypePostgres StorageType = "postgres"
	StorageTypeMemory   StorageType = "memory"
)

type StorageConfig struct {
	Type      StorageType
	LocalPath string
	S3        *S3Config
	Postgres  *PostgresConfig
}

type S3Config struct {
	Bucket string
	Region string
}

type PostgresConfig struct {
	ConnectionURI string
	Table         string
}
