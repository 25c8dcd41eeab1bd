package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	chatsvc "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
)

func TestManagerOpenGetClose(t *testing.T) {
	store := chatsvc.NewService()
	personas := persona.NewMemoryStore(persona.Seed(), "futureme")
	m := NewManager(store, personas, ManagerConfig{Responder: &fakeResponder{}, SampleInterval: 10 * time.Millisecond})
	defer m.Shutdown()

	ctx := context.Background()
	s, err := store.CreateSession(ctx, "toiletgpt", "")
	require.NoError(t, err)

	first, err := m.Open(ctx, s.ID)
	require.NoError(t, err)
	second, err := m.Open(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "toiletgpt", first.Persona().ID)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, first, got)

	require.NoError(t, m.Close(ctx, s.ID))
	_, ok = m.Get(s.ID)
	assert.False(t, ok)

	_, err = store.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, chatsvc.ErrSessionNotFound)
}

func TestManagerOpenUnknownSession(t *testing.T) {
	m := NewManager(chatsvc.NewService(), persona.NewMemoryStore(persona.Seed(), ""), ManagerConfig{})
	_, err := m.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, chatsvc.ErrSessionNotFound)
}

func TestManagerUnknownPersona(t *testing.T) {
	store := chatsvc.NewService()
	s, err := store.CreateSession(context.Background(), "nobody", "")
	require.NoError(t, err)

	m := NewManager(store, persona.NewMemoryStore(persona.Seed(), ""), ManagerConfig{})
	_, err = m.Open(context.Background(), s.ID)
	assert.Error(t, err)
}
