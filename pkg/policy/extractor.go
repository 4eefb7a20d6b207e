package policy

import (
	"regexp"
	"strings"
)

// Identifier is a candidate policy/claim number pulled out of free text.
// Equality for deduplication and ledger lookups is always on the normalized
// form, never the raw form.
type Identifier struct {
	Raw        string
	Normalized string
}

var separatorPattern = regexp.MustCompile(`[\s_\-\.—–:/]`)

// Normalize strips separator characters and uppercases. Source documents come
// out of OCR pipelines where separators are unreliable, so all matching runs
// on this form.
func Normalize(s string) string {
	return strings.ToUpper(separatorPattern.ReplaceAllString(s, ""))
}

// Ordered battery of identifier patterns, most specific first. Matching runs
// against the uppercased query.
var identifierPatterns = []*regexp.Regexp{
	// Multi-part formats with separators: SAC-AZ-AUTO-2025-456789, PHI-IL-IND-2025-778899
	regexp.MustCompile(`\b[A-Z]{2,5}[-_][A-Z]{2,4}[-_][A-Z0-9]+[-_]\d{4}[-_]\d{3,}\b`),
	regexp.MustCompile(`\b[A-Z]{2,4}[-_][A-Z]{2,4}[-_]\d{4}[-_]\d{3,}\b`), // ESC-NY-CP-2025-334567
	regexp.MustCompile(`\b[A-Z]{2,4}[-_]\d{4}[-_]\d{4,}\b`),               // SH-2025-445789
	regexp.MustCompile(`\b[A-Z]{2,4}[-_]\d{4}[-_]?\d{3,}\b`),              // LP-985240156
	regexp.MustCompile(`\b[A-Z]{1,4}([-_]\d{2,6}){2,4}\b`),                // LP-985-240-156

	// Compact alphanumeric: LP985240156, PHI778899IND
	regexp.MustCompile(`\b[A-Z]{2,4}\d{8,15}\b`),
	regexp.MustCompile(`\b[A-Z]{3}\d{6}[A-Z]{2,3}\b`),
	regexp.MustCompile(`\b[A-Z]{1,3}\d{2,4}[A-Z]{1,4}\d{4,10}\b`),

	// Specialized prefixes
	regexp.MustCompile(`\bPOL[-_]?[A-Z0-9]{6,}\b`),
	regexp.MustCompile(`\bP\d{8,}[A-Z]*\b`),
	regexp.MustCompile(`\bINS[A-Z0-9]{6,}\b`),
	regexp.MustCompile(`\b\d{4}[A-Z]{2,4}\d{4,8}\b`),

	// Generic multi-part with mixed separators: XX-YY-123456, XX.YY.ABCD123
	regexp.MustCompile(`\b[A-Z0-9]{2,4}[-_\.][A-Z0-9]{2,4}[-_\.][A-Z0-9]{4,}\b`),

	// Pure numeric runs of plausible length
	regexp.MustCompile(`\b\d{10,20}\b`),
}

// Contextual patterns fire only when the user explicitly anchors the value on
// "policy"/"claim"/"number"; capture group 1 holds the candidate.
var contextualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:POLICY|CLAIM)\s*(?:NUMBER|NO|#)?\s*:?\s*([A-Z0-9\-_\.]{6,25})`),
	regexp.MustCompile(`(?i)POLICY\s+([A-Z0-9\-_\.]{6,25})`),
	regexp.MustCompile(`(?i)NUMBER\s+([A-Z0-9\-_\.]{8,25})`),
}

// Stoplist of tokens that pattern-match like identifiers but never are.
var identifierStoplist = []string{"HTTP", "HTTPS", "WWW", "EMAIL", "LOCALHOST", "DOCUMENT", "CONTENT"}

var (
	letterPattern    = regexp.MustCompile(`[A-Z]`)
	digitPattern     = regexp.MustCompile(`\d`)
	separatorCharset = regexp.MustCompile(`[-_]`)
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
	pureAlphaPattern = regexp.MustCompile(`^[A-Z]+$`)
	pureDigitPattern = regexp.MustCompile(`^\d+$`)
)

// IsValid reports whether a candidate string is plausibly a real policy or
// claim number. Plain words (company names like "LEMONADE") are never
// identifiers.
func IsValid(candidate string) bool {
	candidate = strings.ToUpper(strings.TrimSpace(candidate))
	if candidate == "" {
		return false
	}

	for _, fp := range identifierStoplist {
		if strings.Contains(candidate, fp) {
			return false
		}
	}

	if pureAlphaPattern.MatchString(candidate) {
		return false
	}
	if yearPattern.MatchString(candidate) {
		return false
	}

	// Low-entropy digit runs ("1111111") are noise, not identifiers.
	if pureDigitPattern.MatchString(candidate) && len(candidate) < 10 && distinctRunes(candidate) <= 2 {
		return false
	}

	hasLetters := letterPattern.MatchString(candidate)
	hasDigits := digitPattern.MatchString(candidate)
	hasSeparators := separatorCharset.MatchString(candidate)
	isLongNumber := pureDigitPattern.MatchString(candidate) && len(candidate) >= 10

	return (hasLetters && hasDigits) || isLongNumber || hasSeparators
}

// Extract pulls candidate policy identifiers out of a raw user query. Fully
// deterministic; survivors are deduplicated by normalized form in the order
// they were first matched. Each accepted match masks its span so later,
// looser patterns cannot re-match fragments of an identifier already taken
// ("AZ-AUTO-2025-456789" out of "SAC-AZ-AUTO-2025-456789").
func Extract(query string) []Identifier {
	queryUpper := strings.ToUpper(strings.TrimSpace(query))

	var taken [][2]int
	overlapsTaken := func(start, end int) bool {
		for _, span := range taken {
			if start < span[1] && end > span[0] {
				return true
			}
		}
		return false
	}

	var result []Identifier
	seen := make(map[string]bool)
	accept := func(start, end int) {
		candidate := strings.TrimSpace(queryUpper[start:end])
		if !IsValid(candidate) {
			return
		}
		taken = append(taken, [2]int{start, end})
		normalized := Normalize(candidate)
		if normalized == "" || seen[normalized] {
			return
		}
		seen[normalized] = true
		result = append(result, Identifier{Raw: candidate, Normalized: normalized})
	}

	for _, pattern := range identifierPatterns {
		for _, loc := range pattern.FindAllStringIndex(queryUpper, -1) {
			if overlapsTaken(loc[0], loc[1]) {
				continue
			}
			accept(loc[0], loc[1])
		}
	}
	for _, pattern := range contextualPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(queryUpper, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			if overlapsTaken(loc[2], loc[3]) {
				continue
			}
			accept(loc[2], loc[3])
		}
	}

	return result
}

// Merge combines identifier sets, deduplicating by normalized form and
// preserving first-seen order.
func Merge(sets ...[]Identifier) []Identifier {
	var merged []Identifier
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, id := range set {
			if seen[id.Normalized] {
				continue
			}
			seen[id.Normalized] = true
			merged = append(merged, id)
		}
	}
	return merged
}

func distinctRunes(s string) int {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return len(set)
}
