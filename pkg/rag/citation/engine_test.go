package citation

import (
	"testing"

	"claims-agent-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCiteAnswerDriven(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 3, Text: "Collision deductible is $500 per occurrence."},
		{ID: "c2", DocumentName: "Umbrella Policy", Page: 12, Text: "Umbrella limit of $1,000,000 applies."},
		{ID: "c3", DocumentName: "Padding Doc", Page: 1, Text: "General definitions and notices."},
	}

	answer := "Under your Auto Policy the collision deductible is $500."
	cited, refs := NewEngine().Cite(answer, chunks)

	require.Len(t, refs, 1)
	assert.Equal(t, "Auto Policy", refs[0].DocumentName)
	assert.Equal(t, []int{3}, refs[0].Pages)
	assert.Contains(t, cited, "Auto Policy [1]")
	// Unmentioned documents never earn a marker.
	assert.NotContains(t, cited, "[2]")
}

func TestCiteNoMentionLeavesAnswerUnmodified(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 3, Text: "Collision deductible is $500."},
	}

	answer := "Your collision deductible is $500."
	cited, refs := NewEngine().Cite(answer, chunks)

	assert.Empty(t, refs)
	assert.Equal(t, answer, cited)
}

func TestCiteIsCaseInsensitive(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "sacaz auto policy", Page: 2, Text: "Deductible $100."},
	}

	answer := "The SacAZ Auto Policy sets a $100 deductible."
	cited, refs := NewEngine().Cite(answer, chunks)

	require.Len(t, refs, 1)
	assert.Equal(t, "sacaz auto policy", refs[0].DocumentName)
	assert.Contains(t, cited, "SacAZ Auto Policy [1]")
}

func TestCiteOrdinalsFollowAnswerOrder(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Umbrella Policy", Page: 12, Text: "limit of $1,000,000"},
		{ID: "c2", DocumentName: "Auto Policy", Page: 3, Text: "deductible is $500"},
	}

	answer := "The Auto Policy deductible is $500 and the Umbrella Policy limit is $1,000,000."
	_, refs := NewEngine().Cite(answer, chunks)

	require.Len(t, refs, 2)
	assert.Equal(t, "Auto Policy", refs[0].DocumentName)
	assert.Equal(t, 1, refs[0].Ordinal)
	assert.Equal(t, "Umbrella Policy", refs[1].DocumentName)
	assert.Equal(t, 2, refs[1].Ordinal)
}

func TestCiteMarksEveryMention(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 3, Text: "deductible is $500"},
	}

	answer := "The Auto Policy covers collision. The Auto Policy excludes flood."
	cited, refs := NewEngine().Cite(answer, chunks)

	require.Len(t, refs, 1)
	assert.Equal(t, "The Auto Policy [1] covers collision. The Auto Policy [1] excludes flood.", cited)
}

func TestCiteNeverDuplicatesMarker(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 3, Text: "deductible is $500"},
	}

	answer := "The Auto Policy [1] covers collision."
	cited, _ := NewEngine().Cite(answer, chunks)

	assert.Equal(t, answer, cited)
}

func TestCiteTableCellMarker(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 3, Text: "Collision limit $50,000"},
	}

	answer := "The Auto Policy limits are:\n| Document | Limit |\n| Auto Policy | $50,000 |"
	cited, refs := NewEngine().Cite(answer, chunks)

	require.Len(t, refs, 1)
	// Marker lands in the table cell, not at the prose mention.
	assert.Contains(t, cited, "| Auto Policy [1] |")
	assert.Contains(t, cited, "The Auto Policy limits are:")
	assert.NotContains(t, cited, "The Auto Policy [1] limits")
}

func TestCiteSkipsQuestions(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 3, Text: "deductible $500"},
	}

	cited, refs := NewEngine().Cite("Could you share your Auto Policy number?", chunks)
	assert.Empty(t, refs)
	assert.NotContains(t, cited, "[1]")
}

func TestCiteAggregatesPages(t *testing.T) {
	chunks := []store.DocumentChunk{
		{ID: "c1", DocumentName: "Auto Policy", Page: 7, Text: "deductible is $500"},
		{ID: "c2", DocumentName: "Auto Policy", Page: 3, Text: "the $500 deductible applies to collision"},
	}

	_, refs := NewEngine().Cite("Your Auto Policy deductible is $500.", chunks)
	require.Len(t, refs, 1)
	assert.Equal(t, []int{3, 7}, refs[0].Pages)
}

func TestFormatReferences(t *testing.T) {
	refs := []store.Reference{
		{Ordinal: 1, DocumentName: "Auto Policy", Pages: []int{3, 7}},
		{Ordinal: 2, DocumentName: "Umbrella Policy"},
	}

	got := NewEngine().FormatReferences(refs)
	assert.Equal(t, []string{
		"[1] Auto Policy : Page 3, 7",
		"[2] Umbrella Policy",
	}, got)
}
