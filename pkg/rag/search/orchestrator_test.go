package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"claims-agent-be/pkg/blobstore"
	"claims-agent-be/pkg/embedding"
	"claims-agent-be/pkg/policy"
	"claims-agent-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type stubIndex struct {
	neighbors []vectorindex.Neighbor
}

func (s *stubIndex) Query(ctx context.Context, vector []float32, neighborCount int) ([]vectorindex.Neighbor, error) {
	return s.neighbors, nil
}

type stubBlobs struct {
	texts map[string]string
}

func (s *stubBlobs) FetchText(ctx context.Context, chunkID string) (string, error) {
	text, ok := s.texts[chunkID]
	if !ok {
		return "", blobstore.ErrNotFound
	}
	return text, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.VariantTimeout = time.Second
	return cfg
}

func TestBuildVariantsCapped(t *testing.T) {
	o := NewOrchestrator(&stubEmbedder{}, &stubIndex{}, &stubBlobs{}, testConfig(), nil)

	ids := policy.Extract("compare LP-985-240-156 and SAC-AZ-AUTO-2025-456789 and PHI-IL-IND-2025-778899 and POL-2024-001122")
	require.NotEmpty(t, ids)

	variants := o.buildVariants("what are my deductibles", ids)
	assert.LessOrEqual(t, len(variants), 15)
	assert.Contains(t, variants, "LP-985-240-156")
	assert.Contains(t, variants, "LP985240156")
}

func TestSearchFiltersByIdentifierContent(t *testing.T) {
	index := &stubIndex{neighbors: []vectorindex.Neighbor{
		{ChunkID: "auto_policy_1712000000_chunk_0001", Score: 0.92},
		{ChunkID: "home_policy_1712000000_chunk_0002", Score: 0.88},
	}}
	blobs := &stubBlobs{texts: map[string]string{
		"auto_policy_1712000000_chunk_0001": "Policy Number: LP-985-240-156\nCollision coverage applies.",
		"home_policy_1712000000_chunk_0002": "This section covers dwelling protection only.",
	}}

	o := NewOrchestrator(&stubEmbedder{}, index, blobs, testConfig(), nil)
	ids := policy.Extract("LP-985-240-156")
	require.Len(t, ids, 1)

	chunks, err := o.Search(context.Background(), "what collision coverage do I have", ids)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "auto_policy_1712000000_chunk_0001", chunks[0].ID)
	assert.Equal(t, "auto policy", chunks[0].DocumentName)
}

func TestSearchRanksByPageThenLength(t *testing.T) {
	index := &stubIndex{neighbors: []vectorindex.Neighbor{
		{ChunkID: "doc_page_3_chunk_0001", Score: 0.9},
		{ChunkID: "doc_page_1_chunk_0002", Score: 0.8},
		{ChunkID: "doc_page_1_chunk_0003", Score: 0.7},
	}}
	blobs := &stubBlobs{texts: map[string]string{
		"doc_page_3_chunk_0001": "LP985240156 later page content",
		"doc_page_1_chunk_0002": "LP985240156 short",
		"doc_page_1_chunk_0003": "LP985240156 a considerably longer declarations passage",
	}}

	o := NewOrchestrator(&stubEmbedder{}, index, blobs, testConfig(), nil)
	ids := policy.Extract("LP985240156")
	require.Len(t, ids, 1)

	chunks, err := o.Search(context.Background(), "coverage", ids)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "doc_page_1_chunk_0003", chunks[0].ID)
	assert.Equal(t, "doc_page_1_chunk_0002", chunks[1].ID)
	assert.Equal(t, "doc_page_3_chunk_0001", chunks[2].ID)
}

func TestSearchCapsAtTopK(t *testing.T) {
	var neighbors []vectorindex.Neighbor
	texts := make(map[string]string)
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("doc_chunk_%04d", i)
		neighbors = append(neighbors, vectorindex.Neighbor{ChunkID: id, Score: 0.5})
		texts[id] = fmt.Sprintf("LP985240156 clause %d text", i)
	}

	o := NewOrchestrator(&stubEmbedder{}, &stubIndex{neighbors: neighbors}, &stubBlobs{texts: texts}, testConfig(), nil)
	ids := policy.Extract("LP985240156")

	chunks, err := o.Search(context.Background(), "coverage", ids)
	require.NoError(t, err)
	assert.Len(t, chunks, 30)
}

func TestSearchEmptyWhenNoContentMatch(t *testing.T) {
	index := &stubIndex{neighbors: []vectorindex.Neighbor{
		{ChunkID: "doc_chunk_0001", Score: 0.9},
	}}
	blobs := &stubBlobs{texts: map[string]string{
		"doc_chunk_0001": "no identifiers in this text at all",
	}}

	o := NewOrchestrator(&stubEmbedder{}, index, blobs, testConfig(), nil)
	ids := policy.Extract("LP985240156")

	chunks, err := o.Search(context.Background(), "coverage", ids)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
