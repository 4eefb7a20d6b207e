package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CLAIM_FILED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewClaimFiledEvent is emitted when the FNOL flow issues a claim number.
func NewClaimFiledEvent(sessionID, policyNumber, claimNumber string) Event {
	return BaseEvent{
		Type: "CLAIM_FILED",
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"policy_number": policyNumber,
			"claim_number":  claimNumber,
		},
		OccurredAt: time.Now(),
	}
}
