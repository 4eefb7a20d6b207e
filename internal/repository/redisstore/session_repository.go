package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"claims-agent-be/internal/repository/contract"
	"claims-agent-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:session:"

// SessionRepository persists sessions in redis so conversations survive
// process restarts and can be shared across replicas.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ contract.SessionStore = &SessionRepository{}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{client: client, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get session: %w", err)
	}

	var session store.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, false, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &session, true, nil
}

func (r *SessionRepository) Put(ctx context.Context, session *store.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, keyPrefix+session.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
