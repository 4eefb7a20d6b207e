package fnol

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"claims-agent-be/pkg/store"
)

// Stage is where a first-notice-of-loss conversation currently stands.
// The stage is inferred from history on every turn rather than stored,
// so a lost or replayed session can never get stuck mid-flow.
type Stage string

const (
	StageInitialLossReport Stage = "initial_loss_report"
	StagePolicyVerified    Stage = "policy_verification"
	StageIncidentDetails   Stage = "incident_details"
	StageConfirmation      Stage = "confirmation"
	StageClaimNumberIssued Stage = "claim_number_issued"
)

// Query types the stage machine keys off. These are the query_type
// values the chat pipeline records on each turn.
const (
	QueryTypePolicyRequired   = "policy_required"
	QueryTypeLossValidated    = "loss_validated"
	QueryTypeDetailsCollected = "details_collected"
)

var (
	affirmationExpr = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|yup|correct|confirm(ed)?|that'?s right|right|sure|go ahead|proceed|please do|file it|submit)\b`)
	nonAlnumExpr    = regexp.MustCompile(`[^A-Z0-9]`)
)

// incidentFieldExprs detect which of the four loss facts a message
// carries. The details stage keeps asking until all four are present.
var incidentFieldExprs = map[string]*regexp.Regexp{
	"when":   regexp.MustCompile(`(?i)\b(yesterday|today|this\s+morning|last\s+(night|week|month)|on\s+\w+day|\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?|at\s+\d{1,2}(:\d{2})?\s*(am|pm)?)\b`),
	"where":  regexp.MustCompile(`(?i)\b(on|at|near|in)\s+(the\s+)?([A-Z][a-z]+|highway|freeway|interstate|i-\d+|route\s+\d+|intersection|parking\s+(lot|garage)|street|road|avenue|home|house|driveway)\b`),
	"what":   regexp.MustCompile(`(?i)\b(accident|crash|collision|collided|hit|rear[\s-]?ended|stolen|theft|fire|flood|storm|hail|vandal|break[\s-]?in|water\s+damage|tree\s+fell)\b`),
	"extent": regexp.MustCompile(`(?i)\b(damage(d)?|dent(ed)?|scratch(ed)?|broken|shattered|totaled|wreck(ed)?|injur(y|ed|ies)|hurt|minor|severe|bumper|windshield|fender|door|roof)\b`),
}

// Infer derives the current FNOL stage from the conversation. It is a
// pure function of the last recorded turn and the text of the current
// message.
func Infer(session *store.Session, currentQuery string) Stage {
	var last *store.Turn
	if session != nil {
		last = session.LastTurn()
	}
	if last == nil {
		return StageInitialLossReport
	}

	switch last.QueryType {
	case QueryTypePolicyRequired:
		return StagePolicyVerified
	case QueryTypeLossValidated:
		return StageIncidentDetails
	case QueryTypeDetailsCollected:
		if IsAffirmation(currentQuery) {
			return StageClaimNumberIssued
		}
		return StageConfirmation
	}
	return StageInitialLossReport
}

// IsAffirmation reports whether the message is a go-ahead ("yes",
// "correct", "file it") rather than new information.
func IsAffirmation(query string) bool {
	return affirmationExpr.MatchString(query)
}

// CollectIncidentFields scans the message plus prior detail turns and
// returns which loss facts are present and which are still missing.
func CollectIncidentFields(session *store.Session, currentQuery string) (present, missing []string) {
	text := currentQuery
	if session != nil {
		for _, turn := range session.Turns {
			if turn.QueryType == QueryTypeLossValidated || turn.QueryType == QueryTypeDetailsCollected {
				text += "\n" + turn.Query
			}
		}
	}

	for _, field := range []string{"when", "where", "what", "extent"} {
		if incidentFieldExprs[field].MatchString(text) {
			present = append(present, field)
		} else {
			missing = append(missing, field)
		}
	}
	return present, missing
}

// GenerateClaimNumber builds a claim reference from the policy prefix, a
// timestamp component, and a random suffix. Format: PRE-12345-6789. The
// top-level rand functions are locked, so concurrent sessions can file
// claims at once.
func GenerateClaimNumber(policyNumber string, now time.Time) string {
	prefix := "CLM"
	cleaned := nonAlnumExpr.ReplaceAllString(strings.ToUpper(policyNumber), "")
	if len(cleaned) >= 3 {
		prefix = cleaned[:3]
	}

	suffix := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%s-%05d-%d", prefix, now.Unix()%100000, suffix)
}
