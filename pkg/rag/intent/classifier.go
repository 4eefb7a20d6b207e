package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"claims-agent-be/pkg/llm"
)

// Result is the resolved classification for one turn. It is derived fresh per
// turn and never persisted beyond the turn's query_type.
//
// NeedsClarification is intentionally left to the session layer: the
// classifier only reports intent, the session state decides whether to ask.
type Result struct {
	Intent                string
	AllIntents            []string
	RequiresPolicy        bool
	MinPolicies           int
	FormatPreference      string
	NeedsClarification    bool
	NeedsPolicyholderInfo bool
}

// Classifier resolves a user query to a single intent: a priority-ordered
// regex battery first, the LLM oracle as fallback for queries no pattern
// recognizes.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify analyzes the current query. Oracle failure is never propagated:
// the classification degrades to "general" and the pipeline continues.
func (c *Classifier) Classify(ctx context.Context, query string) *Result {
	queryLower := strings.ToLower(query)

	var detected []string
	for _, entry := range Table {
		for _, expr := range entry.Exprs {
			if expr.MatchString(queryLower) {
				detected = append(detected, entry.Intent)
				break
			}
		}
	}

	if len(detected) == 0 {
		label := c.classifyWithOracle(ctx, query)
		detected = append(detected, label)
	}

	primary := resolvePrimary(detected)

	result := &Result{
		Intent:                primary,
		AllIntents:            detected,
		FormatPreference:      formatPreference(detected),
		NeedsPolicyholderInfo: containsLabel(detected, IntentPersonalClaim),
	}
	result.RequiresPolicy, result.MinPolicies = policyRequirement(primary)

	c.logger.Printf("[INTENT] Resolved %q -> %s (all: %v, requires_policy: %v)",
		query, primary, detected, result.RequiresPolicy)

	return result
}

// IsGreeting reports whether the query is a short social message (5 words or
// fewer) that should bypass the whole pipeline.
func IsGreeting(query string) bool {
	if len(strings.Fields(query)) > 5 {
		return false
	}
	queryLower := strings.ToLower(query)
	for _, expr := range GreetingExprs {
		if expr.MatchString(queryLower) {
			return true
		}
	}
	return false
}

func (c *Classifier) classifyWithOracle(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(`You are an expert at classifying insurance-related user queries.
Classify this query into one of:
['policy_summary', 'coverage_check', 'limit_conflict', 'comparison', 'personal_claim', 'open_ended', 'general']

Examples:
- "pull up the lemonade renters policy" -> policy_summary
- "my policy covers 20k but damage is 50k" -> limit_conflict
- "is flood covered" -> coverage_check
- "my car was in an accident" -> personal_claim
- "what can you do?" -> open_ended
- "that's interesting" -> general

Query: %q
Intent:`, query)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[WARN] Intent oracle fallback failed: %v", err)
		return IntentGeneral
	}

	fields := strings.Fields(strings.Trim(strings.TrimSpace(response), `'"`))
	if len(fields) == 0 {
		return IntentGeneral
	}
	label := strings.ToLower(fields[0])
	if !knownIntent(label) {
		return IntentGeneral
	}
	return label
}

// resolvePrimary collapses multiple detections into one intent using the
// table's fixed priority order: claim language beats information requests,
// which beat comparisons; otherwise the first detection wins.
func resolvePrimary(detected []string) string {
	has := func(labels ...string) bool {
		for _, l := range labels {
			for _, d := range detected {
				if d == l {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has(IntentPersonalClaim, IntentFNOL):
		return IntentFNOL
	case has(IntentPolicyInfo, IntentPolicySummary, IntentSpecificPerson):
		return IntentPolicyInfo
	case has(IntentComparison, IntentSimilarSearch):
		return IntentComparison
	case len(detected) > 0:
		return detected[0]
	default:
		return IntentGeneral
	}
}

// formatPreference derives the response format from every detected label,
// not just the resolved primary: resolution collapses policy_summary into
// policy_info, but a summary-style request must still gate on clarifying
// questions.
func formatPreference(detected []string) string {
	switch {
	case containsLabel(detected, IntentPersonalClaim) || containsLabel(detected, IntentFNOL):
		return FormatClarification
	case containsLabel(detected, IntentComparison) || containsLabel(detected, IntentPolicySummary) ||
		containsLabel(detected, IntentSpecificPerson) || containsLabel(detected, IntentLimitConflict):
		return FormatNeedsClarification
	case containsLabel(detected, IntentCoverageCheck) || containsLabel(detected, IntentLimitsDeductibles):
		return FormatStructured
	default:
		return FormatText
	}
}

func containsLabel(detected []string, label string) bool {
	for _, d := range detected {
		if d == label {
			return true
		}
	}
	return false
}

// policyRequirement returns whether the intent concerns a specific policy and
// how many identifiers it needs. Only open-ended, general and greeting turns
// proceed without one; comparisons need at least two.
func policyRequirement(primary string) (required bool, minPolicies int) {
	switch primary {
	case IntentOpenEnded, IntentGeneral, IntentGreeting:
		return false, 0
	case IntentComparison, IntentSimilarSearch:
		return true, 2
	default:
		return true, 1
	}
}

func knownIntent(label string) bool {
	switch label {
	case IntentPersonalClaim, IntentOpenEnded, IntentFNOL, IntentPolicyInfo,
		IntentPolicySummary, IntentSimilarSearch, IntentSpecificPerson,
		IntentComparison, IntentCoverageCheck, IntentLimitsDeductibles,
		IntentLimitConflict, IntentGeneral:
		return true
	}
	return false
}
