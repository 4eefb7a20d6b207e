package fnol

import (
	"regexp"
	"testing"
	"time"

	"claims-agent-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func sessionWithLastType(queryType string) *store.Session {
	s := store.NewSession("s1")
	s.Turns = []store.Turn{{Query: "previous", QueryType: queryType}}
	return s
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name    string
		session *store.Session
		query   string
		want    Stage
	}{
		{"fresh session", nil, "I was in a car accident", StageInitialLossReport},
		{"empty session", store.NewSession("s1"), "I was in a car accident", StageInitialLossReport},
		{"after policy gate", sessionWithLastType(QueryTypePolicyRequired), "LP-985-240-156", StagePolicyVerified},
		{"after loss validated", sessionWithLastType(QueryTypeLossValidated), "it happened yesterday", StageIncidentDetails},
		{"details collected, more info", sessionWithLastType(QueryTypeDetailsCollected), "also the windshield cracked", StageConfirmation},
		{"details collected, affirmed", sessionWithLastType(QueryTypeDetailsCollected), "yes, please file it", StageClaimNumberIssued},
		{"unrelated last turn", sessionWithLastType("text"), "what about towing", StageInitialLossReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(tt.session, tt.query))
		})
	}
}

func TestIsAffirmation(t *testing.T) {
	assert.True(t, IsAffirmation("yes"))
	assert.True(t, IsAffirmation("Yes, that's right"))
	assert.True(t, IsAffirmation("go ahead and submit it"))
	assert.False(t, IsAffirmation("no, the date is wrong"))
	assert.False(t, IsAffirmation("what happens next"))
}

func TestCollectIncidentFields(t *testing.T) {
	session := store.NewSession("s1")
	session.Turns = []store.Turn{
		{Query: "I was rear-ended on the highway", QueryType: QueryTypeLossValidated},
	}

	present, missing := CollectIncidentFields(session, "it happened yesterday, the bumper is dented")
	assert.ElementsMatch(t, []string{"when", "where", "what", "extent"}, present)
	assert.Empty(t, missing)

	present, missing = CollectIncidentFields(nil, "my car was stolen")
	assert.Contains(t, present, "what")
	assert.Contains(t, missing, "when")
}

func TestGenerateClaimNumber(t *testing.T) {
	now := time.Unix(1756400000, 0)

	claim := GenerateClaimNumber("LP-985-240-156", now)
	assert.Regexp(t, regexp.MustCompile(`^LP9-\d{5}-\d{4}$`), claim)

	// Short or empty policy falls back to the generic prefix.
	claim = GenerateClaimNumber("", now)
	assert.Regexp(t, regexp.MustCompile(`^CLM-\d{5}-\d{4}$`), claim)
}
