package storage

import (
	"fmt"

	"familytree/internal/config"
)

type Factory struct {
	config StorageConfig
}

func NewFactory(config StorageConfig) *Factory {
	return &Factory{
		config: config,
	}
}

func (f *Factory) CreateStorage() (Storage, error) {
	switch f.config.Type {
	case StorageTypeLocal:
		basePath := f.config.LocalPath
		if basePath == "" {
			basePath = "./data"
		}
		return NewLocalStorage(basePath)

	case StorageTypeS3:
		if f.config.S3 == nil {
			return nil, fmt.Errorf("S3 configuration is required for S3 storage type")
		}
		return NewS3Storage(*f.config.S3)

	case StorageTypePostgres:
		if f.config.Postgres == nil || f.config.Postgres.ConnectionURI == "" {
			return nil, fmt.Errorf("a connection URI is required for postgres storage type")
		}
		return NewPostgresStorage(*f.config.Postgres), nil

	case StorageTypeMemory:
		return NewMemoryStorage(), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", f.config.Type)
	}
}

// FromConfig translates the application config into a storage backend.
func FromConfig(cfg config.StorageConfig) (Storage, error) {
	sc := StorageConfig{
		Type:      StorageType(cfg.Type),
		LocalPath: cfg.DataDir,
	}

	switch sc.Type {
	case StorageTypeS3:
		if cfg.S3Bucket == "" || cfg.S3Region == "" {
			return nil, fmt.Errorf("S3 storage requires STORAGE_S3_BUCKET and STORAGE_S3_REGION environment variables")
		}
		sc.S3 = &S3Config{Bucket: cfg.S3Bucket, Region: cfg.S3Region}

	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres storage requires the DATABASE_URL environment variable")
		}
		sc.Postgres = &PostgresConfig{ConnectionURI: cfg.DatabaseURL, Table: "family_documents"}
	}

	return NewFactory(sc).CreateStorage()
}
