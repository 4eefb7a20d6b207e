package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"claims-agent-be/internal/dto"
	"claims-agent-be/internal/pkg/logger"
	"claims-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// IClaimEventPublisher forwards filed claims to the event bus.
// *nats.Publisher is the production implementation.
type IClaimEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// consumerService drains the in-process claim-filed topic, forwards each
// claim to the NATS event bus, and writes the audit trail. The chat path
// never blocks on downstream claim systems.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	natsPub   IClaimEventPublisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	natsPub IClaimEventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		natsPub:   natsPub,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ClaimFiledMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal claim message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ClaimConsumer", "Claim filed", map[string]interface{}{
		"session_id":    payload.SessionID,
		"policy_number": payload.PolicyNumber,
		"claim_number":  payload.ClaimNumber,
	})

	if cs.natsPub != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		evt := events.NewClaimFiledEvent(payload.SessionID, payload.PolicyNumber, payload.ClaimNumber)
		if err := cs.natsPub.Publish(pubCtx, evt); err != nil {
			// NATS forwarding is best-effort: the claim is already in the
			// audit log, and a Nack here would make the gochannel redeliver
			// in a hot loop while NATS is down.
			cs.logger.Error("ClaimConsumer", "Failed to forward claim to NATS", map[string]interface{}{
				"claim_number": payload.ClaimNumber,
				"error":        err,
			})
		}
	}

	msg.Ack()
}
