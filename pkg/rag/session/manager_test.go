package session

import (
	"context"
	"testing"
	"time"

	"claims-agent-be/internal/repository/memory"
	"claims-agent-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(memory.NewSessionRepository(time.Hour))
}

func TestLoadOrCreateMintsID(t *testing.T) {
	m := newTestManager()

	session, err := m.LoadOrCreate(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Empty(t, session.Turns)
}

func TestLoadOrCreateRoundTrip(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	session, err := m.LoadOrCreate(ctx, "abc")
	require.NoError(t, err)
	m.Append(session, store.Turn{Query: "hello", Answer: "hi"})
	require.NoError(t, m.Save(ctx, session))

	reloaded, err := m.LoadOrCreate(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, reloaded.Turns, 1)
	assert.Equal(t, "hello", reloaded.Turns[0].Query)
}

func TestAppendPrunesHistory(t *testing.T) {
	m := newTestManager()
	session := store.NewSession("s1")

	for i := 0; i < 20; i++ {
		m.Append(session, store.Turn{Query: "q", Answer: "a"})
	}
	assert.Len(t, session.Turns, maxTurns)
}

func TestClarificationLedger(t *testing.T) {
	m := newTestManager()
	session := store.NewSession("s1")

	assert.True(t, m.NeedsClarification(session, "LP985240156"))
	assert.False(t, m.AwaitingClarification(session, "LP985240156"))

	m.MarkAsked(session, "LP985240156")
	assert.False(t, m.NeedsClarification(session, "LP985240156"))
	assert.True(t, m.AwaitingClarification(session, "LP985240156"))
	assert.Equal(t, []string{"LP985240156"}, m.PendingClarifications(session))

	m.MarkCleared(session, "LP985240156")
	assert.False(t, m.AwaitingClarification(session, "LP985240156"))
	assert.Empty(t, m.PendingClarifications(session))
}
