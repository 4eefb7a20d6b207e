package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"claims-agent-be/internal/constant"
	"claims-agent-be/internal/dto"
	"claims-agent-be/internal/pkg/logger"
	"claims-agent-be/pkg/llm"
	"claims-agent-be/pkg/policy"
	"claims-agent-be/pkg/rag/citation"
	"claims-agent-be/pkg/rag/fnol"
	"claims-agent-be/pkg/rag/history"
	"claims-agent-be/pkg/rag/intent"
	"claims-agent-be/pkg/rag/prompt"
	"claims-agent-be/pkg/rag/response"
	"claims-agent-be/pkg/rag/search"
	"claims-agent-be/pkg/rag/session"
	"claims-agent-be/pkg/store"
)

type IChatService interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

type chatService struct {
	classifier *intent.Classifier
	history    *history.Builder
	search     *search.Orchestrator
	sessions   *session.Manager
	prompts    *prompt.Builder
	generator  *response.Generator
	citations  *citation.Engine
	llm        llm.LLMProvider
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewChatService(
	classifier *intent.Classifier,
	historyBuilder *history.Builder,
	searchOrchestrator *search.Orchestrator,
	sessionManager *session.Manager,
	promptBuilder *prompt.Builder,
	generator *response.Generator,
	citationEngine *citation.Engine,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		classifier: classifier,
		history:    historyBuilder,
		search:     searchOrchestrator,
		sessions:   sessionManager,
		prompts:    promptBuilder,
		generator:  generator,
		citations:  citationEngine,
		llm:        llmProvider,
		publisher:  publisher,
		logger:     log,
	}
}

// turnOutcome is everything one turn produces before it gets recorded.
type turnOutcome struct {
	answer                string
	queryType             string
	format                string
	references            []string
	clarifiedPolicies     []string
	needsClarification    bool
	needsPolicyholderInfo bool
	isPersonalClaim       bool
	claimNumber           string
}

func (s *chatService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	sess, err := s.sessions.LoadOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)

	outcome := s.resolveTurn(ctx, sess, query)

	s.sessions.Append(sess, store.Turn{
		Query:             query,
		Answer:            outcome.answer,
		QueryType:         outcome.queryType,
		ClarifiedPolicies: outcome.clarifiedPolicies,
	})
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error("ChatService", "Failed to persist session", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err,
		})
	}

	return &dto.AskResponse{
		Answer:                outcome.answer,
		QueryType:             outcome.queryType,
		FormatUsed:            outcome.format,
		References:            outcome.references,
		SessionID:             sess.ID,
		NeedsClarification:    outcome.needsClarification,
		NeedsPolicyholderInfo: outcome.needsPolicyholderInfo,
		IsPersonalClaim:       outcome.isPersonalClaim,
		ClaimNumber:           outcome.claimNumber,
	}, nil
}

func (s *chatService) resolveTurn(ctx context.Context, sess *store.Session, query string) turnOutcome {
	// Social shortcut: greetings never touch the retrieval pipeline.
	if intent.IsGreeting(query) {
		return turnOutcome{
			answer:    constant.GreetingAnswer,
			queryType: constant.QueryTypeGreeting,
			format:    intent.FormatText,
		}
	}

	conversationContext := s.history.BuildContext(sess)

	// When the previous turn asked for a policy number, the user's reply is
	// usually just that number. Re-analyze the question they originally asked.
	analysisQuery := query
	if original := s.history.RestoreOriginalQuery(sess, constant.QueryTypePolicyRequired); original != "" {
		analysisQuery = original
	} else {
		analysisQuery = s.history.RewriteContextualQuery(ctx, query, conversationContext)
	}

	// A loss reported earlier in the window keeps the claim flow alive even
	// when an intervening turn (a wrong identifier, a side question) recorded
	// a different query type. The affirmed loss report rejoins the analysis
	// query so classification and retrieval see it.
	incidentText := ""
	if !s.claimFiledRecently(sess) {
		incidentText = s.history.DetectIncident(ctx, sess)
	}
	if incidentText != "" && !strings.Contains(analysisQuery, incidentText) {
		analysisQuery = incidentText + ". " + analysisQuery
	}

	result := s.classifier.Classify(ctx, analysisQuery)

	identifiers := policy.Merge(
		policy.Extract(query),
		policy.Extract(analysisQuery),
		policy.Extract(conversationContext),
		s.identifiersFromHistory(sess),
	)

	stage := fnol.Infer(sess, query)
	inClaimFlow := result.Intent == intent.IntentFNOL || result.Intent == intent.IntentPersonalClaim ||
		incidentText != "" ||
		stage == fnol.StageIncidentDetails || stage == fnol.StageConfirmation || stage == fnol.StageClaimNumberIssued

	// Mandatory policy gate: nothing substantive is answered without the
	// identifiers the intent requires.
	minPolicies := result.MinPolicies
	if (result.RequiresPolicy || inClaimFlow) && minPolicies < 1 {
		minPolicies = 1
	}
	if (result.RequiresPolicy || inClaimFlow) && len(identifiers) < minPolicies {
		answer := constant.PolicyRequiredAnswer
		if inClaimFlow {
			answer = constant.PolicyRequiredForClaimAnswer
		}
		if minPolicies > 1 {
			answer = fmt.Sprintf("To compare policies I need at least %d policy numbers. Could you share them?", minPolicies)
		}
		return turnOutcome{
			answer:                answer,
			queryType:             constant.QueryTypePolicyRequired,
			format:                intent.FormatClarification,
			needsClarification:    true,
			needsPolicyholderInfo: result.NeedsPolicyholderInfo,
			isPersonalClaim:       inClaimFlow,
		}
	}

	// Open-ended questions with no policy on hand get steered, not answered.
	if result.Intent == intent.IntentOpenEnded && len(identifiers) == 0 {
		return turnOutcome{
			answer:             constant.OpenEndedClarificationAnswer,
			queryType:          constant.QueryTypeOpenEnded,
			format:             intent.FormatClarification,
			needsClarification: true,
		}
	}

	if inClaimFlow {
		return s.resolveClaimTurn(ctx, sess, query, analysisQuery, identifiers, stage)
	}

	// First substantive question about an unfamiliar policy: clarify scope
	// before generating a summary-style answer.
	if len(identifiers) > 0 && result.FormatPreference == intent.FormatNeedsClarification {
		primary := identifiers[0].Normalized
		if s.sessions.AwaitingClarification(sess, primary) {
			s.sessions.MarkCleared(sess, primary)
		} else if s.sessions.NeedsClarification(sess, primary) {
			answer := s.clarificationQuestions(ctx, identifiers[0].Raw, analysisQuery)
			s.sessions.MarkAsked(sess, primary)
			return turnOutcome{
				answer:             answer,
				queryType:          constant.QueryTypeNeedsMoreContext,
				format:             intent.FormatNeedsClarification,
				needsClarification: true,
			}
		}
	}

	return s.answerFromDocuments(ctx, sess, analysisQuery, conversationContext, identifiers, result)
}

// answerFromDocuments runs retrieval, generation and citation for normal
// informational turns.
func (s *chatService) answerFromDocuments(ctx context.Context, sess *store.Session, analysisQuery, conversationContext string, identifiers []policy.Identifier, result *intent.Result) turnOutcome {
	chunks, err := s.search.Search(ctx, analysisQuery, identifiers)
	if err != nil {
		s.logger.Error("ChatService", "Retrieval failed", map[string]interface{}{"error": err})
		return turnOutcome{
			answer:    constant.GenerationFailedAnswer,
			queryType: constant.QueryTypeText,
			format:    intent.FormatText,
		}
	}

	if result.RequiresPolicy && len(chunks) == 0 {
		return turnOutcome{
			answer:    constant.PolicyNotFoundAnswer,
			queryType: constant.QueryTypePolicyNotFound,
			format:    intent.FormatText,
		}
	}

	scenario := scenarioFor(result.Intent)
	promptText := s.prompts.Build(scenario, analysisQuery, chunks, identifiers, conversationContext)

	answer, err := s.generator.Generate(ctx, promptText)
	if err != nil {
		s.logger.Error("ChatService", "Generation failed", map[string]interface{}{"error": err})
		return turnOutcome{
			answer:    constant.GenerationFailedAnswer,
			queryType: constant.QueryTypeText,
			format:    intent.FormatText,
		}
	}
	answer = s.generator.Polish(ctx, answer, result.FormatPreference == intent.FormatText)

	citedAnswer, refs := s.citations.Cite(answer, chunks)

	validated := s.validatedPolicies(identifiers, chunks)
	for _, normalized := range validated {
		s.sessions.MarkCleared(sess, normalized)
	}

	return turnOutcome{
		answer:                citedAnswer,
		queryType:             constant.QueryTypeText,
		format:                result.FormatPreference,
		references:            s.citations.FormatReferences(refs),
		clarifiedPolicies:     validated,
		needsPolicyholderInfo: result.NeedsPolicyholderInfo,
	}
}

// resolveClaimTurn advances the first-notice-of-loss flow one stage.
func (s *chatService) resolveClaimTurn(ctx context.Context, sess *store.Session, query, analysisQuery string, identifiers []policy.Identifier, stage fnol.Stage) turnOutcome {
	switch stage {
	case fnol.StageClaimNumberIssued:
		return s.issueClaim(ctx, sess, identifiers)

	case fnol.StageIncidentDetails, fnol.StageConfirmation:
		present, missing := fnol.CollectIncidentFields(sess, query)
		if len(missing) > 0 {
			answer := s.generateOrFallback(ctx, s.prompts.BuildFNOLDetails(missing),
				"Thank you. To continue with your claim, could you tell me when and where this happened, what happened, and the extent of the damage?")
			return turnOutcome{
				answer:          answer,
				queryType:       constant.QueryTypeLossValidated,
				format:          intent.FormatClarification,
				isPersonalClaim: true,
			}
		}
		answer := s.confirmationSummary(ctx, sess, query, present)
		return turnOutcome{
			answer:          answer,
			queryType:       constant.QueryTypeDetailsCollected,
			format:          intent.FormatClarification,
			isPersonalClaim: true,
		}

	default:
		// Policy just verified (or loss reported with a policy number in
		// hand): confirm the policy exists in the documents, then start
		// collecting loss details.
		chunks, err := s.search.Search(ctx, analysisQuery, identifiers)
		if err != nil || len(chunks) == 0 {
			if err != nil {
				s.logger.Error("ChatService", "Claim retrieval failed", map[string]interface{}{"error": err})
			}
			return turnOutcome{
				answer:          constant.PolicyNotFoundAnswer,
				queryType:       constant.QueryTypePolicyNotFound,
				format:          intent.FormatText,
				isPersonalClaim: true,
			}
		}

		validated := s.validatedPolicies(identifiers, chunks)
		_, missing := fnol.CollectIncidentFields(sess, query)
		answer := s.generateOrFallback(ctx, s.prompts.BuildFNOLDetails(missing),
			"I found your policy. I'm sorry about the incident. To start your claim, could you tell me when and where it happened, what happened, and the extent of the damage?")
		return turnOutcome{
			answer:                answer,
			queryType:             constant.QueryTypeLossValidated,
			format:                intent.FormatClarification,
			clarifiedPolicies:     validated,
			isPersonalClaim:       true,
			needsPolicyholderInfo: true,
		}
	}
}

// issueClaim mints the claim number and hands the event to the claim
// pipeline. Publishing failures are logged, never surfaced to the user.
func (s *chatService) issueClaim(ctx context.Context, sess *store.Session, identifiers []policy.Identifier) turnOutcome {
	policyNumber := s.claimPolicyNumber(sess, identifiers)
	claimNumber := fnol.GenerateClaimNumber(policyNumber, time.Now())

	if s.publisher != nil {
		payload, err := json.Marshal(dto.ClaimFiledMessage{
			SessionID:    sess.ID,
			PolicyNumber: policyNumber,
			ClaimNumber:  claimNumber,
		})
		if err == nil {
			err = s.publisher.Publish(ctx, payload)
		}
		if err != nil {
			s.logger.Error("ChatService", "Failed to publish claim event", map[string]interface{}{
				"claim_number": claimNumber,
				"error":        err,
			})
		}
	}

	answer := fmt.Sprintf("Your claim has been filed. Your claim number is %s. Please keep it for your records; an adjuster will contact you within 1-2 business days. Is there anything else I can help you with?", claimNumber)
	return turnOutcome{
		answer:          answer,
		queryType:       constant.QueryTypeClaimFiled,
		format:          intent.FormatText,
		isPersonalClaim: true,
		claimNumber:     claimNumber,
	}
}

// confirmationSummary plays the collected loss facts back to the user
// for a yes/no before the claim is filed.
func (s *chatService) confirmationSummary(ctx context.Context, sess *store.Session, query string, present []string) string {
	var details []string
	for _, turn := range sess.Turns {
		if turn.QueryType == constant.QueryTypeLossValidated || turn.QueryType == constant.QueryTypeDetailsCollected {
			details = append(details, turn.Query)
		}
	}
	details = append(details, query)

	promptText := fmt.Sprintf(`The user is filing an insurance claim and has described the incident across these messages:
%s

Write a short summary of the incident (when, where, what happened, extent of damage) and ask them to confirm it is correct so the claim can be filed. End with a yes/no question.`, strings.Join(details, "\n"))

	return s.generateOrFallback(ctx, promptText,
		"Thank you, I have everything I need. Please confirm the details you've shared are correct and I'll file your claim. Shall I go ahead?")
}

// clarificationQuestions asks 2-3 scoping questions about a policy. A
// slightly higher temperature keeps the questions from sounding canned.
func (s *chatService) clarificationQuestions(ctx context.Context, policyNumber, query string) string {
	promptText := s.prompts.BuildClarification(policyNumber, query)
	answer, err := s.llm.Generate(ctx, promptText, llm.WithTemperature(0.4))
	if err != nil || strings.TrimSpace(answer) == "" {
		return fmt.Sprintf("Before I pull up policy %s, a few quick questions: 1. Which coverage are you most interested in? 2. Is this about a current policy period or a past one? 3. Is the policy under your name?", policyNumber)
	}
	return strings.TrimSpace(answer)
}

func (s *chatService) generateOrFallback(ctx context.Context, promptText, fallback string) string {
	answer, err := s.generator.Generate(ctx, promptText)
	if err != nil || answer == "" {
		return fallback
	}
	return answer
}

// claimFiledRecently reports whether the session already issued a claim
// number. The filed loss report stays in the window for a while; without
// this check it would keep re-entering the claim flow. A new loss after
// a filed claim still enters through the intent patterns on the current
// message.
func (s *chatService) claimFiledRecently(sess *store.Session) bool {
	for _, turn := range sess.Turns {
		if turn.QueryType == constant.QueryTypeClaimFiled {
			return true
		}
	}
	return false
}

// identifiersFromHistory recovers policy numbers mentioned earlier in the
// session, including ones confirmed in table-formatted answers.
func (s *chatService) identifiersFromHistory(sess *store.Session) []policy.Identifier {
	var ids []policy.Identifier
	for _, turn := range sess.Turns {
		ids = policy.Merge(ids, policy.Extract(turn.Query))
		if strings.Contains(turn.Answer, "|") || strings.Contains(strings.ToLower(turn.Answer), "policy") {
			ids = policy.Merge(ids, policy.Extract(turn.Answer))
		}
		for _, normalized := range turn.ClarifiedPolicies {
			ids = policy.Merge(ids, []policy.Identifier{{Raw: normalized, Normalized: normalized}})
		}
	}
	return ids
}

// validatedPolicies returns the normalized identifiers actually found in
// the retrieved content.
func (s *chatService) validatedPolicies(identifiers []policy.Identifier, chunks []store.DocumentChunk) []string {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	var validated []string
	for _, id := range identifiers {
		if policy.ValidateInChunks(id, texts) {
			validated = append(validated, id.Normalized)
		}
	}
	return validated
}

// claimPolicyNumber finds the policy a claim should be filed against:
// the current turn's identifier, else the last one verified.
func (s *chatService) claimPolicyNumber(sess *store.Session, identifiers []policy.Identifier) string {
	if len(identifiers) > 0 {
		return identifiers[0].Raw
	}
	for i := len(sess.Turns) - 1; i >= 0; i-- {
		if len(sess.Turns[i].ClarifiedPolicies) > 0 {
			return sess.Turns[i].ClarifiedPolicies[0]
		}
	}
	return ""
}

func scenarioFor(primary string) prompt.Scenario {
	switch primary {
	case intent.IntentFNOL, intent.IntentPersonalClaim:
		return prompt.ScenarioFNOL
	case intent.IntentComparison, intent.IntentSimilarSearch:
		return prompt.ScenarioComparison
	case intent.IntentPolicyInfo, intent.IntentPolicySummary, intent.IntentCoverageCheck,
		intent.IntentLimitsDeductibles, intent.IntentSpecificPerson, intent.IntentLimitConflict:
		return prompt.ScenarioPolicyInfo
	default:
		return prompt.ScenarioDefault
	}
}
