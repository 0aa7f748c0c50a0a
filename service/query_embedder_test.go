package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

type stubEmbedder struct {
	calls int
	vec   []float64
	err   error
}

func (s *stubEmbedder) Name() string   { return "stub" }
func (s *stubEmbedder) Dimension() int { return len(s.vec) }
func (s *stubEmbedder) Embed(context.Context, string) ([]float64, error) {
	s.calls++
	return s.vec, s.err
}

func TestQueryEmbedderEmptyTextIsZeroVector(t *testing.T) {
	backend := &stubEmbedder{vec: []float64{1, 2, 3}}
	q := NewQueryEmbedder(backend, 0)

	for _, text := range []string{"", "   ", "\n\t"} {
		vec, err := q.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0}, vec)
	}
	assert.Zero(t, backend.calls)
}

func TestQueryEmbedderPropagatesFailure(t *testing.T) {
	backend := &stubEmbedder{vec: []float64{1}, err: core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "down")}
	q := NewQueryEmbedder(backend, 1)

	vec, err := q.Embed(context.Background(), "ml")
	assert.Nil(t, vec)
	assert.True(t, core.IsUnavailable(err))
}

func TestQueryEmbedderPlainErrorIsUnavailable(t *testing.T) {
	backend := &stubEmbedder{vec: []float64{1}, err: errors.New("dial tcp 10.0.0.1:443: connect: connection refused")}
	_, err := NewQueryEmbedder(backend, 1).Embed(context.Background(), "ml")
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
	assert.Contains(t, err.Error(), "connection refused")

	backend.err = context.Canceled
	_, err = NewQueryEmbedder(backend, 1).Embed(context.Background(), "ml")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsUnavailable(err))
}

func TestQueryEmbedderDimensionMismatch(t *testing.T) {
	q := NewQueryEmbedder(&stubEmbedder{vec: []float64{1, 2}}, 3)
	_, err := q.Embed(context.Background(), "ml")
	assert.True(t, core.IsConfiguration(err))
}

func TestQueryEmbedderWithoutBackend(t *testing.T) {
	q := NewQueryEmbedder(nil, 4)
	vec, err := q.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vec, 4)

	_, err = q.Embed(context.Background(), "ml")
	assert.True(t, core.IsConfiguration(err))
}

func TestHashEmbedderDeterministic(t *testing.T) {
	h := NewHashEmbedder(32)
	a, err := h.Embed(context.Background(), "Machine Learning")
	require.NoError(t, err)
	b, _ := h.Embed(context.Background(), "machine, learning!")
	assert.Equal(t, a, b)

	single, _ := h.Embed(context.Background(), "optimization")
	var norm float64
	for _, v := range single {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)

	zero, _ := h.Embed(context.Background(), "  ")
	assert.True(t, core.IsZeroVector(zero))
}
