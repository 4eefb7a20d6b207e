package contract

import (
	"context"

	"claims-agent-be/pkg/store"
)

// SessionStore abstracts where conversation state lives so the chat
// pipeline works the same against the in-memory cache and redis.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*store.Session, bool, error)
	Put(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, sessionID string) error
}
