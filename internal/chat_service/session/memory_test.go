package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetClear(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	state, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, s.Set(ctx, "u1", StateWaitingForIncome))
	state, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, StateWaitingForIncome, state)

	require.NoError(t, s.Clear(ctx, "u1"))
	state, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "anna", StateWaitingForIncome))

	state, err := s.Get(ctx, "erik")
	require.NoError(t, err)
	assert.Empty(t, state, "state of one session must not leak into another")
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Set(ctx, "u1", StateWaitingForIncome))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	state, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state)
}
