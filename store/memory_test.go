package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(11 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
	assert.Zero(t, s.Len())
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))

	got, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}
