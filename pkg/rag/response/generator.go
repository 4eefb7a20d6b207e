package response

import (
	"context"
	"fmt"
	"log"
	"strings"

	"claims-agent-be/pkg/llm"
)

// bulletConversionMax: bullet lists at or under this size read better
// as prose, so short non-comparison answers get a rewrite pass.
const bulletConversionMax = 5

// Generator wraps the LLM call for answer generation, including the
// prose-conversion polish pass and the fixed fallbacks for oracle
// failures.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{llmProvider: llmProvider, logger: logger}
}

// Generate produces the answer for a prompt. Low temperature keeps the
// model anchored to the excerpts.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("answer generation: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Polish converts short bullet lists into prose for conversational
// intents. Tables and longer lists pass through untouched; a failed
// rewrite keeps the original answer.
func (g *Generator) Polish(ctx context.Context, answer string, allowProseConversion bool) string {
	if !allowProseConversion {
		return answer
	}
	bullets := countBullets(answer)
	if bullets == 0 || bullets > bulletConversionMax || strings.Contains(answer, "|") {
		return answer
	}

	prompt := fmt.Sprintf(`Rewrite the following answer as flowing prose, keeping every fact, figure, and citation marker (like [1]) exactly as written. Reply with the rewritten text only.

%s`, answer)

	rewritten, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		g.logger.Printf("prose conversion failed, keeping bullets: %v", err)
		return answer
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return answer
	}
	return rewritten
}

func countBullets(answer string) int {
	count := 0
	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "• ") {
			count++
		}
	}
	return count
}
