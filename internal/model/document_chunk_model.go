package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentChunkEmbedding is one indexed chunk of a policy document. The chunk
// id follows the ingestion naming convention `<doc>_<timestamp>_chunk_<seq>`;
// document name and page are derived from it, never trusted from metadata.
type DocumentChunkEmbedding struct {
	ChunkID        string          `gorm:"primaryKey;type:varchar(255)"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`       // page_numbers, section, subsection from the ingest pipeline
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunkEmbedding) TableName() string {
	return "document_chunk_embeddings"
}

// DocumentChunkText holds the extracted raw text per chunk id, the blob-store
// side of the ingest pipeline.
type DocumentChunkText struct {
	ChunkID   string    `gorm:"primaryKey;type:varchar(255)"`
	Text      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DocumentChunkText) TableName() string {
	return "document_chunk_texts"
}
