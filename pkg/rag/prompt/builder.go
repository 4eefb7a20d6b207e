package prompt

import (
	"fmt"
	"strings"

	"claims-agent-be/pkg/policy"
	"claims-agent-be/pkg/store"
)

// Scenario selects the system guidance for a request.
type Scenario string

const (
	ScenarioDefault    Scenario = "default"
	ScenarioPolicyInfo Scenario = "policy_info"
	ScenarioComparison Scenario = "comparison"
	ScenarioFNOL       Scenario = "fnol"
)

const baseGuidance = `You are an insurance policy assistant. Answer strictly from the provided policy excerpts.
Rules:
- Never invent coverage, limits, or amounts that are not in the excerpts.
- Quote exact dollar amounts, percentages, and dates from the excerpts.
- If the excerpts do not answer the question, say so plainly.
- Refer to the source document by the name shown in its Source line when stating a fact from it.
- Keep answers concise and in plain language.`

var scenarioGuidance = map[Scenario]string{
	ScenarioPolicyInfo: `Present coverage information clearly. When listing multiple coverages with limits, use a markdown table with columns for Coverage, Limit, and Deductible.`,
	ScenarioComparison: `Compare the policies side by side in a markdown table, one column per policy. Call out differences explicitly below the table.`,
	ScenarioFNOL: `The user is reporting a loss. Be empathetic and procedural. Confirm what they have told you, then ask only for the loss details that are still missing. Do not speculate about claim outcomes or coverage decisions.`,
}

// Builder assembles the generation prompt from retrieved chunks and
// conversation state.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the full prompt: scenario guidance, source excerpts
// grouped by document, the in-scope policy numbers, conversation
// context, and finally the user's question.
func (b *Builder) Build(scenario Scenario, query string, chunks []store.DocumentChunk, identifiers []policy.Identifier, conversationContext string) string {
	var sb strings.Builder
	sb.WriteString(baseGuidance)
	if extra, ok := scenarioGuidance[scenario]; ok {
		sb.WriteString("\n")
		sb.WriteString(extra)
	}
	sb.WriteString("\n\n")

	if len(identifiers) > 0 {
		sb.WriteString("POLICY NUMBERS IN SCOPE: ")
		raws := make([]string, len(identifiers))
		for i, id := range identifiers {
			raws[i] = id.Raw
		}
		sb.WriteString(strings.Join(raws, ", "))
		sb.WriteString("\n\n")
	}

	if len(chunks) > 0 {
		sb.WriteString("POLICY EXCERPTS:\n")
		seenSources := make(map[string]bool)
		for _, chunk := range chunks {
			source := chunk.DocumentName
			if chunk.Page > 0 {
				source = fmt.Sprintf("%s, page %d", chunk.DocumentName, chunk.Page)
			}
			if !seenSources[source] {
				seenSources[source] = true
				sb.WriteString(fmt.Sprintf("\n--- Source: %s ---\n", source))
			}
			sb.WriteString(chunk.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if conversationContext != "" {
		sb.WriteString("CONVERSATION SO FAR:\n")
		sb.WriteString(conversationContext)
		sb.WriteString("\n\n")
	}

	sb.WriteString("QUESTION: ")
	sb.WriteString(query)
	return sb.String()
}

// BuildClarification asks the user targeted questions about a policy
// before the first substantive answer.
func (b *Builder) BuildClarification(policyNumber, query string) string {
	return fmt.Sprintf(`The user asked about policy %s: %q

Write a short, friendly reply that asks 2-3 clarifying questions needed before answering, such as which coverage they mean, the time period involved, or whose name the policy is under. Do not answer the question yet. Number the questions.`, policyNumber, query)
}

// BuildFNOLDetails asks for the loss facts still missing from a first
// notice of loss.
func (b *Builder) BuildFNOLDetails(missing []string) string {
	labels := map[string]string{
		"when":   "when the incident happened",
		"where":  "where it happened",
		"what":   "what happened",
		"extent": "the extent of the damage or any injuries",
	}
	var asks []string
	for _, field := range missing {
		if label, ok := labels[field]; ok {
			asks = append(asks, label)
		}
	}
	return fmt.Sprintf(`The user is reporting an insurance loss. Write a short, empathetic reply that asks them to describe: %s. Ask only for these items, numbered.`, strings.Join(asks, "; "))
}
