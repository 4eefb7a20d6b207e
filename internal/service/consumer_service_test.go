package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"claims-agent-be/internal/dto"
	"claims-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingClaimPublisher struct {
	calls int
}

func (p *failingClaimPublisher) Publish(ctx context.Context, event events.Event) error {
	p.calls++
	return errors.New("nats: no servers available")
}

func claimMessage(t *testing.T) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.ClaimFiledMessage{
		SessionID:    "sess-1",
		PolicyNumber: "SAC-AZ-AUTO-2025-456789",
		ClaimNumber:  "SAC-18345-4821",
	})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestProcessMessageAcksWhenForwardingFails(t *testing.T) {
	pub := &failingClaimPublisher{}
	cs := &consumerService{
		topicName: "claim.filed",
		natsPub:   pub,
		logger:    nopLogger{},
	}

	msg := claimMessage(t)
	cs.processMessage(context.Background(), msg)

	// A downstream outage must not spin the gochannel redelivery loop.
	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("claim message was nacked after a publish failure")
	}
	assert.Equal(t, 1, pub.calls)
}

func TestProcessMessageAcksInvalidPayload(t *testing.T) {
	pub := &failingClaimPublisher{}
	cs := &consumerService{
		topicName: "claim.filed",
		natsPub:   pub,
		logger:    nopLogger{},
	}

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	cs.processMessage(context.Background(), msg)

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("malformed claim message was nacked")
	}
	assert.Equal(t, 0, pub.calls)
}
