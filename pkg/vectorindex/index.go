package vectorindex

import "context"

// Neighbor is one ranked result from a similarity query.
type Neighbor struct {
	ChunkID string
	Score   float64 // cosine similarity, 1.0 = identical
}

// Index is the vector similarity oracle: given a query vector it returns
// ranked neighbor chunk ids. Implementations are external services from the
// core's point of view.
type Index interface {
	Query(ctx context.Context, vector []float32, neighborCount int) ([]Neighbor, error)
}
