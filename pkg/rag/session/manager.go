package session

import (
	"context"
	"fmt"
	"time"

	"claims-agent-be/internal/repository/contract"
	"claims-agent-be/pkg/store"

	"github.com/google/uuid"
)

// maxTurns caps how many turns a session retains. Older turns fall off
// the front; the context window only ever looks at the recent tail.
const maxTurns = 15

// Manager wraps the session store with the conversation-level policy:
// turn pruning and the clarification ledger.
type Manager struct {
	sessions contract.SessionStore
}

func NewManager(sessions contract.SessionStore) *Manager {
	return &Manager{sessions: sessions}
}

// LoadOrCreate fetches the session, minting a fresh one (and id) when
// none exists. An unknown or expired session id silently starts over.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*store.Session, error) {
	if sessionID == "" {
		return store.NewSession(uuid.New().String()), nil
	}

	existing, found, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !found {
		return store.NewSession(sessionID), nil
	}
	if existing.ClarificationLedger == nil {
		existing.ClarificationLedger = make(map[string]bool)
	}
	return existing, nil
}

// Append records a completed turn and prunes history beyond maxTurns.
func (m *Manager) Append(session *store.Session, turn store.Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	session.Turns = append(session.Turns, turn)
	if len(session.Turns) > maxTurns {
		session.Turns = session.Turns[len(session.Turns)-maxTurns:]
	}
}

// Save persists the session to the backing store.
func (m *Manager) Save(ctx context.Context, session *store.Session) error {
	if err := m.sessions.Put(ctx, session); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// NeedsClarification reports whether we should ask clarifying questions
// for this policy before answering: true when it has never been seen.
func (m *Manager) NeedsClarification(session *store.Session, normalizedPolicy string) bool {
	_, seen := session.ClarificationLedger[normalizedPolicy]
	return !seen
}

// AwaitingClarification reports whether we already asked about this
// policy and the user has not answered yet.
func (m *Manager) AwaitingClarification(session *store.Session, normalizedPolicy string) bool {
	cleared, seen := session.ClarificationLedger[normalizedPolicy]
	return seen && !cleared
}

// MarkAsked records that clarifying questions went out for this policy.
func (m *Manager) MarkAsked(session *store.Session, normalizedPolicy string) {
	session.ClarificationLedger[normalizedPolicy] = false
}

// MarkCleared records that the user answered the clarifying questions.
func (m *Manager) MarkCleared(session *store.Session, normalizedPolicy string) {
	session.ClarificationLedger[normalizedPolicy] = true
}

// PendingClarifications returns the normalized policies we asked about
// and are still waiting on.
func (m *Manager) PendingClarifications(session *store.Session) []string {
	var pending []string
	for policy, cleared := range session.ClarificationLedger {
		if !cleared {
			pending = append(pending, policy)
		}
	}
	return pending
}
