package store

import "time"

// Turn is one completed exchange in a conversation. Turns are immutable once
// appended to a session.
type Turn struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
	QueryType string    `json:"query_type"`

	// Normalized policy identifiers that were confirmed during this turn.
	ClarifiedPolicies []string `json:"clarified_policies,omitempty"`
}

// Session is the in-memory conversation state for one session id. It lives
// only for the lifetime of the process; a missing session id is treated as a
// brand-new session.
type Session struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`

	// ClarificationLedger maps a normalized policy identifier to whether the
	// user already answered our clarifying questions for it. A false entry
	// means we asked and are waiting; true means cleared.
	ClarificationLedger map[string]bool `json:"clarification_ledger"`
}

// NewSession creates an empty session for the given id.
func NewSession(id string) *Session {
	return &Session{
		ID:                  id,
		ClarificationLedger: make(map[string]bool),
	}
}

// LastTurn returns the most recent turn, or nil for a fresh session.
func (s *Session) LastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// RecentTurns returns up to the last n turns, oldest first.
func (s *Session) RecentTurns(n int) []Turn {
	if len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}
