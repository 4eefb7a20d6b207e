package history

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"claims-agent-be/pkg/llm"
	"claims-agent-be/pkg/store"
)

const (
	// contextTurns is how many recent turns are rendered into the
	// conversation context block.
	contextTurns = 8
	// answerTruncateLen caps how much of a past answer is carried
	// forward into the context block.
	answerTruncateLen = 400
	// rewriteWordLimit: queries longer than this are assumed to be
	// self-contained and skip the contextual rewrite.
	rewriteWordLimit = 10
)

var incidentExprs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(accident|crash|collision|collided)\b`),
	regexp.MustCompile(`(?i)\b(hit|rear[\s-]?ended|t[\s-]?boned)\b`),
	regexp.MustCompile(`(?i)\b(stolen|theft|break[\s-]?in|burglar)\b`),
	regexp.MustCompile(`(?i)\b(fire|flood|storm|hail|water\s+damage)\b`),
	regexp.MustCompile(`(?i)\b(injur(y|ed|ies)|hurt|hospital)\b`),
	regexp.MustCompile(`(?i)\b(damage(d)?|totaled|wreck(ed)?)\b`),
	regexp.MustCompile(`(?i)\bfile\s+(a\s+)?claim\b`),
}

// Hypotheticals and plain questions are not loss reports, even when they
// use loss vocabulary.
var (
	hypotheticalExpr = regexp.MustCompile(`(?i)\b(what\s+if|if\s+(my|i|we|it)\b|would\s+(it|that)\s+be|hypothetical(ly)?|in\s+case)\b`)
	questionLeadExpr = regexp.MustCompile(`(?i)^\s*(is|are|does|do|did|what|which|how|can|could|will|would|when|where|who)\b`)
)

// Builder assembles conversational context from session history and
// answers the "what was the user originally asking" questions that the
// turn-level pipeline cannot answer on its own.
type Builder struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewBuilder(llmProvider llm.LLMProvider, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{llmProvider: llmProvider, logger: logger}
}

// BuildContext renders the last turns of a session into a plain text
// block suitable for prompt injection. Past answers are only included
// when they carry policy-bearing content (they mention "policy" or
// contain table rows), and are truncated to keep the prompt bounded.
func (b *Builder) BuildContext(session *store.Session) string {
	if session == nil || len(session.Turns) == 0 {
		return ""
	}

	turns := session.RecentTurns(contextTurns)
	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString("User: ")
		sb.WriteString(turn.Query)
		sb.WriteString("\n")

		if turn.Answer == "" {
			continue
		}
		lower := strings.ToLower(turn.Answer)
		if !strings.Contains(lower, "policy") && !strings.Contains(turn.Answer, "|") {
			continue
		}
		answer := turn.Answer
		if len(answer) > answerTruncateLen {
			cut := answerTruncateLen
			for cut > 0 && !utf8.RuneStart(answer[cut]) {
				cut--
			}
			answer = answer[:cut] + "..."
		}
		sb.WriteString("Assistant: ")
		sb.WriteString(answer)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RestoreOriginalQuery returns the query that triggered a policy
// request, so that once the user supplies the identifier the pipeline
// can answer what they actually asked. Returns "" when the last turn
// was not a policy request.
func (b *Builder) RestoreOriginalQuery(session *store.Session, queryTypePolicyRequired string) string {
	if session == nil {
		return ""
	}
	last := session.LastTurn()
	if last == nil || last.QueryType != queryTypePolicyRequired {
		return ""
	}
	return last.Query
}

// DetectIncident scans the recent turns for a message describing a loss
// that already happened and returns the first such query, or "" when the
// window holds none. The returned text re-enters the claim flow and is
// prepended to the contextual query, so a wrong-identifier detour never
// loses the original loss report.
func (b *Builder) DetectIncident(ctx context.Context, session *store.Session) string {
	if session == nil {
		return ""
	}
	for _, turn := range session.RecentTurns(contextTurns) {
		if b.isIncident(ctx, turn.Query) {
			return turn.Query
		}
	}
	return ""
}

// isIncident judges one message: a real, past loss event, not a
// hypothetical or a coverage question. The oracle decides at temperature
// zero; keyword matching covers oracle failure or an off-script reply.
func (b *Builder) isIncident(ctx context.Context, message string) bool {
	if strings.TrimSpace(message) == "" {
		return false
	}

	if b.llmProvider != nil {
		prompt := fmt.Sprintf(`Determine whether this message describes an incident, accident, loss, theft, or damage that has ALREADY HAPPENED and could lead to an insurance claim. Hypothetical situations and coverage questions do not count.

Examples:
- "my car broke down on the highway" -> YES
- "what if my car breaks down?" -> NO
- "is flood damage covered?" -> NO
- "a tree fell on my roof last night" -> YES

Message: %q

Answer with exactly one word: YES or NO.`, message)

		answer, err := b.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
		if err == nil {
			answer = strings.ToUpper(strings.TrimSpace(answer))
			if strings.HasPrefix(answer, "YES") {
				return true
			}
			if strings.HasPrefix(answer, "NO") {
				return false
			}
		} else {
			b.logger.Printf("incident detection oracle failed, using keyword fallback: %v", err)
		}
	}

	if hypotheticalExpr.MatchString(message) || questionLeadExpr.MatchString(message) {
		return false
	}
	for _, expr := range incidentExprs {
		if expr.MatchString(message) {
			return true
		}
	}
	return false
}

// RewriteContextualQuery expands a short follow-up ("what about towing?")
// into a standalone query using the conversation context. Long queries
// and context-free sessions pass through unchanged.
func (b *Builder) RewriteContextualQuery(ctx context.Context, query, conversationContext string) string {
	if conversationContext == "" {
		return query
	}
	if len(strings.Fields(query)) > rewriteWordLimit {
		return query
	}
	if b.llmProvider == nil {
		return query
	}

	prompt := fmt.Sprintf(`Given this conversation:
%s

Rewrite the follow-up question below into a fully standalone question that preserves any policy numbers mentioned in the conversation. Reply with the rewritten question only, no preamble.

Follow-up: %s`, conversationContext, query)

	rewritten, err := b.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		b.logger.Printf("contextual rewrite failed, keeping original query: %v", err)
		return query
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	return rewritten
}
