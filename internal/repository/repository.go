package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"familytree/internal/model"
	"familytree/internal/storage"
)

// ErrCorruptDocument is returned when the stored document exists but is
// not a JSON array of members. It is never replaced by an empty list.
var ErrCorruptDocument = errors.New("family document is corrupt")

// MemberRepository loads and saves the whole ordered member collection.
type MemberRepository interface {
	Load(ctx context.Context) ([]model.Member, error)
	Save(ctx context.Context, members []model.Member) error
	HealthCheck(ctx context.Context) error
}

// DocumentRepository keeps the collection as one JSON document in a
// storage backend.
type DocumentRepository struct {
	storage storage.Storage
	key     string
	logger  *slog.Logger
}

func NewDocumentRepository(s storage.Storage, key string, logger *slog.Logger) *DocumentRepository {
	return &DocumentRepository{storage: s, key: key, logger: logger}
}

// Load returns the stored collection in document order. A document that
// was never written is an empty collection.
func (r *DocumentRepository) Load(ctx context.Context) ([]model.Member, error) {
	data, err := r.storage.Read(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.DebugContext(ctx, "Family document not found, starting empty", "key", r.key)
			return []model.Member{}, nil
		}
		return nil, fmt.Errorf("failed to load family document: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Member{}, nil
	}

	var members []model.Member
	if err := json.Unmarshal(data, &members); err != nil {
		r.logger.ErrorContext(ctx, "Family document could not be decoded", "key", r.key, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if members == nil {
		members = []model.Member{}
	}

	return members, nil
}

// Save replaces the stored document with the collection, indented by two
// spaces.
func (r *DocumentRepository) Save(ctx context.Context, members []model.Member) error {
	if members == nil {
		members = []model.Member{}
	}

	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode family document: %w", err)
	}

	if err := r.storage.Write(ctx, r.key, data); err != nil {
		return fmt.Errorf("failed to save family document: %w", err)
	}

	r.logger.DebugContext(ctx, "Family document saved", "key", r.key, "members", len(members), "bytes", len(data))
	return nil
}

// HealthCheck verifies the backend answers for the document key.
func (r *DocumentRepository) HealthCheck(ctx context.Context) error {
	if _, err := r.storage.Exists(ctx, r.key); err != nil {
		return fmt.Errorf("storage unavailable: %w", err)
	}
	return nil
}
