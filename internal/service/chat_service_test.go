package service

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"claims-agent-be/internal/constant"
	"claims-agent-be/internal/dto"
	"claims-agent-be/internal/repository/memory"
	"claims-agent-be/pkg/blobstore"
	"claims-agent-be/pkg/embedding"
	"claims-agent-be/pkg/llm"
	"claims-agent-be/pkg/rag/citation"
	"claims-agent-be/pkg/rag/history"
	"claims-agent-be/pkg/rag/intent"
	"claims-agent-be/pkg/rag/prompt"
	"claims-agent-be/pkg/rag/response"
	"claims-agent-be/pkg/rag/search"
	"claims-agent-be/pkg/rag/session"
	"claims-agent-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns canned responses keyed by a substring of the prompt,
// falling back to a default answer.
type scriptedLLM struct {
	rules    map[string]string
	fallback string
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.fallback, nil
}

func (s *scriptedLLM) Generate(ctx context.Context, promptText string, opts ...llm.Option) (string, error) {
	for needle, answer := range s.rules {
		if strings.Contains(promptText, needle) {
			return answer, nil
		}
	}
	return s.fallback, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

type stubIndex struct {
	neighbors []vectorindex.Neighbor
}

func (s *stubIndex) Query(ctx context.Context, vector []float32, neighborCount int) ([]vectorindex.Neighbor, error) {
	return s.neighbors, nil
}

type stubBlobs struct {
	texts map[string]string
}

func (s *stubBlobs) FetchText(ctx context.Context, chunkID string) (string, error) {
	text, ok := s.texts[chunkID]
	if !ok {
		return "", blobstore.ErrNotFound
	}
	return text, nil
}

type recordingPublisher struct {
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestService(oracle llm.LLMProvider, neighbors []vectorindex.Neighbor, texts map[string]string, publisher IPublisherService) IChatService {
	quiet := log.New(io.Discard, "", 0)

	cfg := search.DefaultConfig()
	cfg.VariantTimeout = time.Second
	orchestrator := search.NewOrchestrator(&stubEmbedder{}, &stubIndex{neighbors: neighbors}, &stubBlobs{texts: texts}, cfg, quiet)

	return NewChatService(
		intent.NewClassifier(oracle, quiet),
		history.NewBuilder(oracle, quiet),
		orchestrator,
		session.NewManager(memory.NewSessionRepository(time.Hour)),
		prompt.NewBuilder(),
		response.NewGenerator(oracle, quiet),
		citation.NewEngine(),
		oracle,
		publisher,
		nopLogger{},
	)
}

func autoPolicyCorpus() ([]vectorindex.Neighbor, map[string]string) {
	neighbors := []vectorindex.Neighbor{
		{ChunkID: "sacaz_auto_policy_1712000000_chunk_0001", Score: 0.93},
		{ChunkID: "sacaz_auto_policy_1712000000_chunk_0002", Score: 0.90},
	}
	texts := map[string]string{
		"sacaz_auto_policy_1712000000_chunk_0001": "Policy Number: SAC-AZ-AUTO-2025-456789\nPage 3\nGlass coverage: windshield replacement is covered with a $100 deductible.",
		"sacaz_auto_policy_1712000000_chunk_0002": "Policy SAC-AZ-AUTO-2025-456789\nCollision coverage limit $50,000 per accident.",
	}
	return neighbors, texts
}

func TestAskGreetingShortcut(t *testing.T) {
	svc := newTestService(&scriptedLLM{fallback: "should not be used"}, nil, nil, nil)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeGreeting, res.QueryType)
	assert.Equal(t, constant.GreetingAnswer, res.Answer)
	assert.NotEmpty(t, res.SessionID)
}

func TestAskPolicyGate(t *testing.T) {
	svc := newTestService(&scriptedLLM{fallback: "generic"}, nil, nil, nil)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Query: "what are the deductibles on my policy?"})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypePolicyRequired, res.QueryType)
	assert.True(t, res.NeedsClarification)
	assert.Contains(t, res.Answer, "policy number")
}

func TestAskCoverageCheckEndToEnd(t *testing.T) {
	neighbors, texts := autoPolicyCorpus()
	oracle := &scriptedLLM{
		rules: map[string]string{
			"QUESTION:": "Yes, under the sacaz auto policy windshield replacement is covered with a $100 deductible.",
		},
		fallback: "Yes, under the sacaz auto policy windshield replacement is covered with a $100 deductible.",
	}
	svc := newTestService(oracle, neighbors, texts, nil)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{
		Query: "Does SAC-AZ-AUTO-2025-456789 cover windshield replacement?",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeText, res.QueryType)
	assert.Contains(t, res.Answer, "$100")
	assert.Contains(t, res.Answer, "[1]")
	require.NotEmpty(t, res.References)
	assert.Contains(t, res.References[0], "sacaz auto policy")
}

func TestAskPolicyNotFoundInContent(t *testing.T) {
	neighbors := []vectorindex.Neighbor{{ChunkID: "other_doc_chunk_0001", Score: 0.8}}
	texts := map[string]string{"other_doc_chunk_0001": "This document never mentions that identifier."}
	svc := newTestService(&scriptedLLM{fallback: "generic"}, neighbors, texts, nil)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{
		Query: "What does policy ZZX9988776655 cover?",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypePolicyNotFound, res.QueryType)
}

func TestAskFNOLFlow(t *testing.T) {
	neighbors, texts := autoPolicyCorpus()
	oracle := &scriptedLLM{
		rules: map[string]string{
			"reporting an insurance loss": "I'm so sorry to hear that. Could you tell me: 1. When did it happen? 2. Where? 3. What happened? 4. How bad is the damage?",
			"ask them to confirm":         "To confirm: yesterday on Main Street you were rear-ended and your bumper was dented. Shall I file the claim?",
		},
		fallback: "Understood.",
	}
	publisher := &recordingPublisher{}
	svc := newTestService(oracle, neighbors, texts, publisher)
	ctx := context.Background()

	// Turn 1: loss reported without a policy number -> gate.
	res, err := svc.Ask(ctx, &dto.AskRequest{Query: "I was in a car accident yesterday"})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypePolicyRequired, res.QueryType)
	assert.True(t, res.IsPersonalClaim)
	sessionID := res.SessionID

	// Turn 2: policy number supplied -> verified against content, details requested.
	res, err = svc.Ask(ctx, &dto.AskRequest{Query: "SAC-AZ-AUTO-2025-456789", SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeLossValidated, res.QueryType)
	assert.True(t, res.IsPersonalClaim)

	// Turn 3: all four loss facts in one message -> confirmation.
	res, err = svc.Ask(ctx, &dto.AskRequest{
		Query:     "It happened yesterday at 3pm on Main Street, I was rear-ended and my bumper is dented",
		SessionID: sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeDetailsCollected, res.QueryType)

	// Turn 4: affirmation -> claim number issued and event published.
	res, err = svc.Ask(ctx, &dto.AskRequest{Query: "yes, please file it", SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeClaimFiled, res.QueryType)
	assert.NotEmpty(t, res.ClaimNumber)
	assert.True(t, strings.HasPrefix(res.ClaimNumber, "SAC-"))
	assert.Contains(t, res.Answer, res.ClaimNumber)
	require.Len(t, publisher.payloads, 1)
	assert.Contains(t, string(publisher.payloads[0]), res.ClaimNumber)
}

func TestAskFNOLRecoversAfterWrongIdentifier(t *testing.T) {
	neighbors, texts := autoPolicyCorpus()
	oracle := &scriptedLLM{
		rules: map[string]string{
			"reporting an insurance loss": "I'm sorry to hear that. Could you tell me when and where it happened, what happened, and the extent of the damage?",
		},
		fallback: "Understood.",
	}
	svc := newTestService(oracle, neighbors, texts, nil)
	ctx := context.Background()

	res, err := svc.Ask(ctx, &dto.AskRequest{Query: "I was in a car accident yesterday"})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypePolicyRequired, res.QueryType)
	sessionID := res.SessionID

	// A policy number the documents do not contain.
	res, err = svc.Ask(ctx, &dto.AskRequest{Query: "ZZX9988776655", SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypePolicyNotFound, res.QueryType)
	assert.True(t, res.IsPersonalClaim)

	// The correct number re-enters the claim flow: the wrong-identifier
	// detour must not drop the loss report from the window.
	res, err = svc.Ask(ctx, &dto.AskRequest{Query: "SAC-AZ-AUTO-2025-456789", SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeLossValidated, res.QueryType)
	assert.True(t, res.IsPersonalClaim)
}

func TestAskClarificationLedger(t *testing.T) {
	neighbors, texts := autoPolicyCorpus()
	oracle := &scriptedLLM{
		rules: map[string]string{
			"clarifying questions": "Before I pull that up: 1. Which coverage matters most to you? 2. Current policy period?",
			"QUESTION:":            "Policy SAC-AZ-AUTO-2025-456789 includes collision coverage with a $50,000 limit.",
		},
		fallback: "Policy SAC-AZ-AUTO-2025-456789 includes collision coverage with a $50,000 limit.",
	}
	svc := newTestService(oracle, neighbors, texts, nil)
	ctx := context.Background()

	// First summary-style request about an unfamiliar policy: clarify first.
	res, err := svc.Ask(ctx, &dto.AskRequest{Query: "pull up the summary of policy SAC-AZ-AUTO-2025-456789"})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeNeedsMoreContext, res.QueryType)
	assert.True(t, res.NeedsClarification)
	sessionID := res.SessionID

	// The user answers; the same request now gets a substantive answer.
	res, err = svc.Ask(ctx, &dto.AskRequest{
		Query:     "mainly collision coverage, current period, summary for SAC-AZ-AUTO-2025-456789 please",
		SessionID: sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.QueryTypeText, res.QueryType)
	assert.False(t, res.NeedsClarification)
	assert.Contains(t, res.Answer, "$50,000")
}
