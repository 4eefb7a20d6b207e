package pgindex

import (
	"context"

	"claims-agent-be/internal/model"
	"claims-agent-be/pkg/vectorindex"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// PgIndex is a pgvector-backed implementation of the vector index oracle.
type PgIndex struct {
	db *gorm.DB
}

var _ vectorindex.Index = &PgIndex{}

func NewPgIndex(db *gorm.DB) *PgIndex {
	return &PgIndex{db: db}
}

func (i *PgIndex) Query(ctx context.Context, vector []float32, neighborCount int) ([]vectorindex.Neighbor, error) {
	if neighborCount <= 0 {
		neighborCount = 10
	}

	// Cosine distance in pgvector is 1 - cosine_similarity.
	type row struct {
		ChunkID    string
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(vector)

	err := i.db.WithContext(ctx).
		Model(&model.DocumentChunkEmbedding{}).
		Select("chunk_id, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(neighborCount).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	neighbors := make([]vectorindex.Neighbor, len(rows))
	for idx, r := range rows {
		neighbors[idx] = vectorindex.Neighbor{
			ChunkID: r.ChunkID,
			Score:   r.Similarity,
		}
	}
	return neighbors, nil
}
