package policy

import (
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantNormalized []string
	}{
		{
			name:           "separator delimited identifier",
			query:          "Is water damage covered under SAC-AZ-AUTO-2025-456789?",
			wantNormalized: []string{"SACAZAUTO2025456789"},
		},
		{
			name:           "compact identifier",
			query:          "pull up LP985240156 for me",
			wantNormalized: []string{"LP985240156"},
		},
		{
			name:           "five part state code format",
			query:          "my policy is PHI-IL-IND-2025-778899",
			wantNormalized: []string{"PHIILIND2025778899"},
		},
		{
			name:           "grouped short digit runs",
			query:          "my policy is LP-985-240-156",
			wantNormalized: []string{"LP985240156"},
		},
		{
			name:           "two identifiers for a comparison",
			query:          "compare SAC-AZ-AUTO-2025-456789 with PHI-IL-IND-2025-778899",
			wantNormalized: []string{"SACAZAUTO2025456789", "PHIILIND2025778899"},
		},
		{
			name:           "pure numeric run",
			query:          "the number is 1234567890123456",
			wantNormalized: []string{"1234567890123456"},
		},
		{
			name:           "contextual anchor",
			query:          "policy number: SH-2025-445789",
			wantNormalized: []string{"SH2025445789"},
		},
		{
			name:           "url is not an identifier",
			query:          "contact us at http://www.example.com",
			wantNormalized: nil,
		},
		{
			name:           "plain word is not an identifier",
			query:          "LEMONADE",
			wantNormalized: nil,
		},
		{
			name:           "no identifiers in ordinary prose",
			query:          "what does my renters policy cover?",
			wantNormalized: nil,
		},
		{
			name:           "duplicate styles collapse to one",
			query:          "SAC-AZ-AUTO-2025-456789 also written SAC_AZ_AUTO_2025_456789",
			wantNormalized: []string{"SACAZAUTO2025456789"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.query)
			if len(got) != len(tt.wantNormalized) {
				t.Fatalf("Extract(%q) = %v, want %d identifiers %v", tt.query, got, len(tt.wantNormalized), tt.wantNormalized)
			}
			for i, want := range tt.wantNormalized {
				if got[i].Normalized != want {
					t.Errorf("identifier %d = %q, want %q", i, got[i].Normalized, want)
				}
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		candidate string
		want      bool
	}{
		{"SAC-AZ-AUTO-2025-456789", true},
		{"LP985240156", true},
		{"1234567890", true},
		{"LEMONADE", false},
		{"STATEFARM", false},
		{"HTTP", false},
		{"WWW", false},
		{"EMAIL", false},
		{"2025", false},       // bare year
		{"111111111", false},  // low-entropy digits under 10 chars
		{"AB-CD", true},       // separators are enough
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			if got := IsValid(tt.candidate); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SAC-AZ-AUTO-2025-456789", "SACAZAUTO2025456789"},
		{"sac_az_auto 2025.456789", "SACAZAUTO2025456789"},
		{"LP : 985/240156", "LP985240156"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	a := []Identifier{{Raw: "SAC-AZ-AUTO-2025-456789", Normalized: "SACAZAUTO2025456789"}}
	b := []Identifier{
		{Raw: "SACAZAUTO2025456789", Normalized: "SACAZAUTO2025456789"},
		{Raw: "LP985240156", Normalized: "LP985240156"},
	}

	merged := Merge(a, b)
	if len(merged) != 2 {
		t.Fatalf("Merge = %v, want 2 identifiers", merged)
	}
	if merged[0].Raw != "SAC-AZ-AUTO-2025-456789" {
		t.Errorf("first-seen raw form should win, got %q", merged[0].Raw)
	}
}
