package pgblob

import (
	"context"
	"errors"

	"claims-agent-be/internal/model"
	"claims-agent-be/pkg/blobstore"

	"gorm.io/gorm"
)

// PgStore keeps chunk texts in postgres alongside the embeddings so the
// retrieval path only needs one database.
type PgStore struct {
	db *gorm.DB
}

var _ blobstore.Store = &PgStore{}

func NewPgStore(db *gorm.DB) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) FetchText(ctx context.Context, chunkID string) (string, error) {
	var chunk model.DocumentChunkText
	err := s.db.WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		First(&chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", blobstore.ErrNotFound
		}
		return "", err
	}
	return chunk.Text, nil
}
