package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	return &LocalStorage{
		basePath: absBasePath,
	}, nil
}

func (ls *LocalStorage) Read(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := ls.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Write stores the document through a temporary file in the same
// directory followed by a rename.
func (ls *LocalStorage) Write(ctx context.Context, key string, data []byte) error {
	fullPath, err := ls.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}

func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := ls.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (ls *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := ls.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ls *LocalStorage) GetMetadata(ctx context.Context, key string) (DocumentMetadata, error) {
	fullPath, err := ls.path(key)
	if err != nil {
		return DocumentMetadata{}, err
	}

	stat, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DocumentMetadata{}, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return DocumentMetadata{}, fmt.Errorf("failed to get file stats: %w", err)
	}

	return DocumentMetadata{
		Size:         stat.Size(),
		LastModified: stat.ModTime(),
		ETag:         fmt.Sprintf("%d-%d", stat.Size(), stat.ModTime().Unix()),
	}, nil
}

func (ls *LocalStorage) Close() error {
	return nil
}

// path resolves key below the base directory and rejects traversal.
func (ls *LocalStorage) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("invalid file path: empty key")
	}

	fullPath := filepath.Join(ls.basePath, key)
	if fullPath != ls.basePath && !strings.HasPrefix(fullPath, ls.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: path traversal detected")
	}

	return fullPath, nil
}
