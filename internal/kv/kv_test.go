package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "players")
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte(`[{"id":"1"}]`)
	require.NoError(t, s.Set(ctx, "players", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "players")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	got[0] = 'y'
	again, err := s.Get(ctx, "players")
	require.NoError(t, err)
	assert.Equal(t, byte('['), again[0])

	require.NoError(t, s.Set(ctx, "players", []byte(`[]`)))
	got, err = s.Get(ctx, "players")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}
