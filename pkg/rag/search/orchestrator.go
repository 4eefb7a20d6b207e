package search

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"claims-agent-be/pkg/blobstore"
	"claims-agent-be/pkg/embedding"
	"claims-agent-be/pkg/policy"
	"claims-agent-be/pkg/store"
	"claims-agent-be/pkg/vectorindex"
)

// Config bounds the retrieval fan-out.
type Config struct {
	// TopK is how many chunks survive the final cut.
	TopK int
	// MaxQueries caps the number of search variants per request.
	MaxQueries int
	// NeighborCount is how many neighbors each variant asks the index for.
	NeighborCount int
	// RelaxedNeighborCount is the wider net used by the fallback search.
	RelaxedNeighborCount int
	// VariantTimeout bounds each individual variant query.
	VariantTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:                 30,
		MaxQueries:           15,
		NeighborCount:        200,
		RelaxedNeighborCount: 500,
		VariantTimeout:       15 * time.Second,
	}
}

// unknownPageSortKey pushes chunks without a resolvable page to the end.
const unknownPageSortKey = 999

var alphaNumBoundary = regexp.MustCompile(`([A-Za-z])(\d)|(\d)([A-Za-z])`)

// Orchestrator runs the multi-variant retrieval pipeline: build search
// variants per policy identifier, fan them out against the vector index,
// then merge, content-filter, and rank the results.
type Orchestrator struct {
	embedder embedding.EmbeddingProvider
	index    vectorindex.Index
	blobs    blobstore.Store
	cfg      Config
	logger   *log.Logger
}

func NewOrchestrator(embedder embedding.EmbeddingProvider, index vectorindex.Index, blobs blobstore.Store, cfg Config, logger *log.Logger) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		embedder: embedder,
		index:    index,
		blobs:    blobs,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search retrieves the chunks most relevant to the query, restricted to
// content that actually mentions one of the target identifiers. If the
// targeted pass comes back empty it retries once with a relaxed broad
// search before giving up.
func (o *Orchestrator) Search(ctx context.Context, query string, identifiers []policy.Identifier) ([]store.DocumentChunk, error) {
	variants := o.buildVariants(query, identifiers)
	o.logger.Printf("retrieval: %d variants for %d identifiers", len(variants), len(identifiers))

	chunks := o.fanOut(ctx, variants, o.cfg.NeighborCount)
	chunks = o.contentFilter(chunks, identifiers)

	if len(chunks) == 0 && len(identifiers) > 0 {
		o.logger.Printf("retrieval: targeted pass empty, running relaxed search")
		chunks = o.relaxedSearch(ctx, query, identifiers)
	}

	rankChunks(chunks)
	if len(chunks) > o.cfg.TopK {
		chunks = chunks[:o.cfg.TopK]
	}
	return chunks, nil
}

// buildVariants produces the search strings for a request. Each identifier
// contributes its raw, normalized, spaced, and keyword-anchored forms; the
// query itself and a few generic coverage terms fill out the rest, capped
// at MaxQueries.
func (o *Orchestrator) buildVariants(query string, identifiers []policy.Identifier) []string {
	var variants []string
	seen := make(map[string]bool)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] || len(variants) >= o.cfg.MaxQueries {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}

	for _, id := range identifiers {
		add(id.Raw)
		add(id.Normalized)
		add(spaceOut(id.Normalized))
		add("policy number " + id.Raw)
	}

	add(query)
	if len(identifiers) > 0 {
		for _, id := range identifiers {
			add(query + " " + id.Raw)
		}
	}
	for _, term := range []string{"coverage details", "policy terms and conditions", "limits and deductibles"} {
		add(term)
	}

	return variants
}

// spaceOut inserts spaces at letter/digit boundaries so embeddings of
// OCR-mangled identifiers still land near the compact form.
func spaceOut(normalized string) string {
	return alphaNumBoundary.ReplaceAllString(normalized, "$1$3 $2$4")
}

// fanOut runs every variant concurrently and merges results, deduplicating
// by chunk id and keeping the best score seen. Failed variants are logged
// and skipped; one bad embedding call must not sink the request.
func (o *Orchestrator) fanOut(ctx context.Context, variants []string, neighborCount int) []store.DocumentChunk {
	type variantResult struct {
		neighbors []vectorindex.Neighbor
	}

	results := make([]variantResult, len(variants))
	var wg sync.WaitGroup
	for i, variant := range variants {
		wg.Add(1)
		go func(i int, variant string) {
			defer wg.Done()
			variantCtx, cancel := context.WithTimeout(ctx, o.cfg.VariantTimeout)
			defer cancel()

			resp, err := o.embedder.Generate(variant, "RETRIEVAL_QUERY")
			if err != nil {
				o.logger.Printf("retrieval: embed variant %q failed: %v", variant, err)
				return
			}
			neighbors, err := o.index.Query(variantCtx, resp.Embedding.Values, neighborCount)
			if err != nil {
				o.logger.Printf("retrieval: index query for %q failed: %v", variant, err)
				return
			}
			results[i].neighbors = neighbors
		}(i, variant)
	}
	wg.Wait()

	best := make(map[string]float64)
	var order []string
	for _, res := range results {
		for _, n := range res.neighbors {
			if score, ok := best[n.ChunkID]; !ok {
				best[n.ChunkID] = n.Score
				order = append(order, n.ChunkID)
			} else if n.Score > score {
				best[n.ChunkID] = n.Score
			}
		}
	}

	return o.hydrate(ctx, order, best)
}

// hydrate resolves chunk ids into full chunks with text, page and
// document name. Fetches run concurrently; a failed fetch drops that
// chunk only.
func (o *Orchestrator) hydrate(ctx context.Context, chunkIDs []string, scores map[string]float64) []store.DocumentChunk {
	fetched := make([]*store.DocumentChunk, len(chunkIDs))
	var wg sync.WaitGroup
	for i, id := range chunkIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			text, err := o.blobs.FetchText(ctx, id)
			if err != nil {
				o.logger.Printf("retrieval: fetch text for %s failed: %v", id, err)
				return
			}
			fetched[i] = &store.DocumentChunk{
				ID:           id,
				DocumentName: policy.ExtractDocumentName(id),
				Page:         policy.ParsePageNumber(id, text),
				Text:         text,
				Score:        float32(scores[id]),
			}
		}(i, id)
	}
	wg.Wait()

	chunks := make([]store.DocumentChunk, 0, len(chunkIDs))
	for _, chunk := range fetched {
		if chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}
	return chunks
}

// contentFilter keeps only chunks whose text contains at least one target
// identifier. With no identifiers the filter is a no-op.
func (o *Orchestrator) contentFilter(chunks []store.DocumentChunk, identifiers []policy.Identifier) []store.DocumentChunk {
	if len(identifiers) == 0 {
		return chunks
	}
	filtered := chunks[:0:0]
	for _, chunk := range chunks {
		for _, id := range identifiers {
			if policy.ValidateInText(id, chunk.Text) {
				filtered = append(filtered, chunk)
				break
			}
		}
	}
	return filtered
}

// relaxedSearch is the fallback pass: a handful of broad terms, a much
// wider neighbor net, and the same content filter. It exists for scanned
// documents where the identifier only survives in odd chunk boundaries.
func (o *Orchestrator) relaxedSearch(ctx context.Context, query string, identifiers []policy.Identifier) []store.DocumentChunk {
	var terms []string
	for _, id := range identifiers {
		terms = append(terms, id.Raw)
		if len(terms) >= 3 {
			break
		}
	}
	terms = append(terms, query, "insurance policy document")
	if len(terms) > 5 {
		terms = terms[:5]
	}

	chunks := o.fanOut(ctx, terms, o.cfg.RelaxedNeighborCount)
	return o.contentFilter(chunks, identifiers)
}

// rankChunks orders chunks for prompt assembly: earlier pages first so
// declarations precede endorsements, longer text first within a page so
// substantive clauses beat fragments.
func rankChunks(chunks []store.DocumentChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		pi, pj := chunks[i].Page, chunks[j].Page
		if pi == 0 {
			pi = unknownPageSortKey
		}
		if pj == 0 {
			pj = unknownPageSortKey
		}
		if pi != pj {
			return pi < pj
		}
		return len(chunks[i].Text) > len(chunks[j].Text)
	})
}
