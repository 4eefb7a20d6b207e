package policy

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	chunkIDPagePattern = regexp.MustCompile(`page[_\-]?(\d+)`)
	chunkIDSeqPattern  = regexp.MustCompile(`chunk[_\-]?(\d+)`)
	chunkIDSuffix      = regexp.MustCompile(`_\d{10,}_chunk_\d{4,}`)
	nameSeparators     = regexp.MustCompile(`[_\-]+`)

	textPagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bpage\s+(\d{1,4})\b`),
		regexp.MustCompile(`\bp[.]?\s*(\d{1,4})\b`),
		regexp.MustCompile(`\bpg[.]?\s*(\d{1,4})\b`),
		regexp.MustCompile(`\bpage[:\s\-]+(\d{1,4})\b`),
	}
)

// ParsePageNumber derives a page number from a chunk id's naming convention,
// falling back to page markers in the first lines of the text, then to the
// chunk sequence number. Returns 0 when no page can be derived.
func ParsePageNumber(chunkID, text string) int {
	if m := chunkIDPagePattern.FindStringSubmatch(strings.ToLower(chunkID)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	firstLines := strings.ToLower(strings.Join(lines, "\n"))
	for _, pattern := range textPagePatterns {
		if m := pattern.FindStringSubmatch(firstLines); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}

	// Chunking is sequential per document, so chunk_N lives on page N+1 more
	// often than not.
	if m := chunkIDSeqPattern.FindStringSubmatch(strings.ToLower(chunkID)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n + 1
		}
	}

	return 0
}

// ExtractDocumentName strips the ingestion suffix (`_<timestamp>_chunk_<seq>`)
// from a chunk id and turns separators into spaces, preserving the original
// casing.
func ExtractDocumentName(chunkID string) string {
	name := chunkIDSuffix.ReplaceAllString(chunkID, "")
	name = strings.TrimSpace(nameSeparators.ReplaceAllString(name, " "))
	if name == "" {
		return chunkID
	}
	return name
}
