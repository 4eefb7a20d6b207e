package store

// DocumentChunk is a retrieval-time unit of policy-document text with its
// provenance. Chunks are never mutated after retrieval, only filtered and
// ranked.
type DocumentChunk struct {
	ID           string  `json:"id"`
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"` // 0 means unknown
	Text         string  `json:"text"`
	Score        float32 `json:"score"`
}

// Reference is one numbered source entry attached to a generated answer.
// It aggregates every page cited for a single document.
type Reference struct {
	Ordinal      int    `json:"ordinal"`
	DocumentName string `json:"document_name"`
	Pages        []int  `json:"pages"`
}
