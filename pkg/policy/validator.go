package policy

import "strings"

// Thresholds for the company-name guard. Short all-alphabetic candidates that
// recur throughout a document are almost always brand names picked up by the
// extractor, not identifiers.
const (
	companyNameMaxLen        = 10
	companyNameMaxOccurrence = 5
)

// ValidateInText reports whether the identifier's normalized form appears in
// the normalized document text. Metadata fields cannot be trusted as the
// source of truth for scanned documents, so this content check gates both
// user-supplied identifiers and retrieved chunks.
func ValidateInText(id Identifier, text string) bool {
	if id.Normalized == "" || text == "" {
		return false
	}

	normalizedText := Normalize(text)
	if !strings.Contains(normalizedText, id.Normalized) {
		return false
	}

	if pureAlphaPattern.MatchString(id.Normalized) && len(id.Normalized) < companyNameMaxLen {
		if strings.Count(normalizedText, id.Normalized) > companyNameMaxOccurrence {
			return false
		}
	}

	return true
}

// ValidateInChunks reports whether the identifier is content-validated by at
// least one of the given texts.
func ValidateInChunks(id Identifier, texts []string) bool {
	for _, text := range texts {
		if ValidateInText(id, text) {
			return true
		}
	}
	return false
}
