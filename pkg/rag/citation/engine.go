package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"claims-agent-be/pkg/store"
)

var tableRowExpr = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)

// Engine attaches reference markers to generated answers. Citations are
// answer-driven: a document earns a marker only when its name actually
// appears in the answer, so retrieval padding never gets cited.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Cite inserts [n] markers next to document-name mentions and returns
// the reference list. Questions and clarification prompts are never
// cited; they carry no document content.
func (e *Engine) Cite(answer string, chunks []store.DocumentChunk) (string, []store.Reference) {
	if len(chunks) == 0 || isQuestion(answer) {
		return answer, nil
	}

	type docInfo struct {
		name  string
		pages map[int]bool
	}

	// Group chunks per document, aggregating the pages each one saw.
	var docs []*docInfo
	byName := make(map[string]*docInfo)
	for _, chunk := range chunks {
		if chunk.DocumentName == "" {
			continue
		}
		info, ok := byName[chunk.DocumentName]
		if !ok {
			info = &docInfo{name: chunk.DocumentName, pages: make(map[int]bool)}
			byName[chunk.DocumentName] = info
			docs = append(docs, info)
		}
		if chunk.Page > 0 {
			info.pages[chunk.Page] = true
		}
	}

	// A document is cited only when its name literally appears in the
	// answer. Ordinals follow first appearance.
	type match struct {
		doc *docInfo
		pos int
	}
	lowerAnswer := strings.ToLower(answer)
	var matches []match
	for _, doc := range docs {
		if pos := strings.Index(lowerAnswer, strings.ToLower(doc.name)); pos >= 0 {
			matches = append(matches, match{doc: doc, pos: pos})
		}
	}
	if len(matches) == 0 {
		return answer, nil
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	cited := answer
	var refs []store.Reference
	for ordinal, m := range matches {
		marker := fmt.Sprintf("[%d]", ordinal+1)
		cited = insertMarkers(cited, m.doc.name, marker)
		refs = append(refs, store.Reference{
			Ordinal:      ordinal + 1,
			DocumentName: m.doc.name,
			Pages:        sortedPages(m.doc.pages),
		})
	}
	return cited, refs
}

// FormatReferences renders references the way the response payload
// carries them: "[1] Auto Policy : Page 3, 7".
func (e *Engine) FormatReferences(refs []store.Reference) []string {
	formatted := make([]string, 0, len(refs))
	for _, ref := range refs {
		if len(ref.Pages) == 0 {
			formatted = append(formatted, fmt.Sprintf("[%d] %s", ref.Ordinal, ref.DocumentName))
			continue
		}
		pages := make([]string, len(ref.Pages))
		for i, p := range ref.Pages {
			pages[i] = fmt.Sprintf("%d", p)
		}
		formatted = append(formatted, fmt.Sprintf("[%d] %s : Page %s", ref.Ordinal, ref.DocumentName, strings.Join(pages, ", ")))
	}
	return formatted
}

// insertMarkers places the marker after occurrences of the document
// name. When the answer has table rows mentioning the document, only
// those cells get markers so rendering stays aligned; otherwise every
// plain-text mention is marked. Mentions already carrying the marker
// are left alone.
func insertMarkers(answer, name, marker string) string {
	positions := findOccurrences(answer, name)
	if len(positions) == 0 {
		return answer
	}

	var tablePositions []int
	for _, pos := range positions {
		if inTableRow(answer, pos) {
			tablePositions = append(tablePositions, pos)
		}
	}
	if len(tablePositions) > 0 {
		positions = tablePositions
	}

	// Back to front so earlier offsets stay valid.
	for i := len(positions) - 1; i >= 0; i-- {
		end := positions[i] + len(name)
		rest := answer[end:]
		if strings.HasPrefix(rest, marker) || strings.HasPrefix(rest, " "+marker) {
			continue
		}
		answer = answer[:end] + " " + marker + answer[end:]
	}
	return answer
}

// findOccurrences returns the start offset of every case-insensitive
// occurrence of name in answer.
func findOccurrences(answer, name string) []int {
	lower := strings.ToLower(answer)
	needle := strings.ToLower(name)
	var positions []int
	for from := 0; ; {
		idx := strings.Index(lower[from:], needle)
		if idx < 0 {
			break
		}
		positions = append(positions, from+idx)
		from += idx + len(needle)
	}
	return positions
}

func inTableRow(answer string, pos int) bool {
	lineStart := strings.LastIndex(answer[:pos], "\n") + 1
	lineEnd := strings.Index(answer[pos:], "\n")
	if lineEnd < 0 {
		lineEnd = len(answer)
	} else {
		lineEnd += pos
	}
	return tableRowExpr.MatchString(answer[lineStart:lineEnd])
}

func isQuestion(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return true
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	// Clarification prompts list numbered questions.
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "could you clarify") || strings.Contains(lower, "few quick questions")
}

func sortedPages(pages map[int]bool) []int {
	out := make([]int, 0, len(pages))
	for p := range pages {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
