package recall

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/store"
)

// flakyIndex 前 failures 次返回 err，之后委托给 next。
type flakyIndex struct {
	next     core.VectorService
	err      error
	failures int
	calls    int
	vectors  [][]float64
}

func (f *flakyIndex) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	f.calls++
	f.vectors = append(f.vectors, req.Vector)
	if f.calls <= f.failures {
		return nil, f.err
	}
	if f.next == nil {
		return &core.VectorSearchResult{}, nil
	}
	return f.next.Search(ctx, req)
}

func (f *flakyIndex) Close() error { return nil }

type staticIndex struct {
	items []core.VectorSearchItem
}

func (s *staticIndex) Search(context.Context, *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	return &core.VectorSearchResult{Items: s.items}, nil
}

func (s *staticIndex) Close() error { return nil }

func newCatalogIndex(t *testing.T) *store.MemoryVectorService {
	t.Helper()
	ctx := context.Background()
	svc := store.NewMemoryVectorService()
	require.NoError(t, svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "courses_s1", Dimension: 2}))
	require.NoError(t, svc.Insert(ctx, &core.VectorInsertRequest{
		Collection: "courses_s1",
		IDs:        []string{"104031", "234114", "bad"},
		Vectors:    [][]float64{{1, 0}, {0, 1}, {1, 1}},
		Metadata: []map[string]any{
			{MetaCourseID: "104031", MetaTitle: "Calculus", MetaCredits: 5.5},
			{MetaCourseID: "234114", MetaTitle: "Intro CS", MetaCredits: 4.0},
			{MetaCourseID: "999999", MetaCredits: "lots"},
		},
	}))
	return svc
}

func newRecallContext(vec []float64) *core.RecommendContext {
	return &core.RecommendContext{Semester: "s1", QueryVector: vec}
}

func TestCatalogRecall(t *testing.T) {
	r := &CatalogRecall{
		Index:       newCatalogIndex(t),
		Collections: map[string]string{"s1": "courses_s1"},
	}
	items, err := r.Process(context.Background(), newRecallContext([]float64{1, 0}), nil)
	require.NoError(t, err)
	require.Len(t, items, 2, "malformed record is skipped")
	assert.Equal(t, "104031", items[0].ID)
	assert.InDelta(t, 1.0, items[0].SemanticScore, 1e-9)
	assert.Equal(t, "234114", items[1].ID)
	assert.Equal(t, "catalog", items[0].Labels["recall_source"].Value)
}

func TestCatalogRecallUnknownSemester(t *testing.T) {
	idx := &flakyIndex{}
	r := &CatalogRecall{Index: idx, Collections: map[string]string{"s1": "courses_s1"}}
	_, err := r.Process(context.Background(), &core.RecommendContext{Semester: "s9"}, nil)
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err))
	assert.Zero(t, idx.calls)
}

func TestCatalogRecallRetry(t *testing.T) {
	unavailable := core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "timeout")
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   func(error) bool
	}{
		{name: "recovers after one retry", failures: 1, err: unavailable, wantCalls: 2},
		{name: "gives up after one retry", failures: 5, err: unavailable, wantCalls: 2, wantErr: core.IsUnavailable},
		{name: "plain transport error is retried", failures: 1, err: errors.New("i/o timeout"), wantCalls: 2},
		{
			name:      "plain transport error surfaces as unavailable",
			failures:  5,
			err:       errors.New("connection refused"),
			wantCalls: 2,
			wantErr:   core.IsUnavailable,
		},
		{
			name:      "configuration error is not retried",
			failures:  5,
			err:       core.NewDomainError(core.ModuleVector, core.ErrorCodeConfiguration, "collection not found"),
			wantCalls: 1,
			wantErr:   core.IsConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &flakyIndex{next: newCatalogIndex(t), err: tt.err, failures: tt.failures}
			r := &CatalogRecall{
				Index:        idx,
				Collections:  map[string]string{"s1": "courses_s1"},
				RetryBackoff: time.Millisecond,
			}
			items, err := r.Process(context.Background(), newRecallContext([]float64{0, 1}), nil)
			assert.Equal(t, tt.wantCalls, idx.calls)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, 2)
			for _, v := range idx.vectors {
				assert.Equal(t, []float64{0, 1}, v)
			}
		})
	}
}

func TestCatalogRecallCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idx := &flakyIndex{err: context.Canceled, failures: 5}
	r := &CatalogRecall{Index: idx, Collections: map[string]string{"s1": "courses_s1"}, RetryBackoff: time.Millisecond}
	_, err := r.Process(ctx, newRecallContext([]float64{1, 0}), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, idx.calls, 1)
}

func TestCatalogRecallClampAndDedup(t *testing.T) {
	r := &CatalogRecall{
		Index: &staticIndex{items: []core.VectorSearchItem{
			{ID: "a", Score: 1.7, Metadata: map[string]any{MetaCourseID: "0123"}},
			{ID: "b", Score: 0.4, Metadata: map[string]any{MetaCourseID: "123"}},
			{ID: "c", Score: -0.2, Metadata: map[string]any{MetaCourseID: "456"}},
			{ID: "d", Score: math.NaN(), Metadata: map[string]any{MetaCourseID: "789"}},
		}},
		Collections: map[string]string{"s1": "courses_s1"},
	}
	items, err := r.Process(context.Background(), newRecallContext([]float64{1, 0}), nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "0123", items[0].ID)
	assert.Equal(t, 1.0, items[0].SemanticScore)
	assert.Equal(t, 0.0, items[1].SemanticScore)
	assert.Equal(t, 0.0, items[2].SemanticScore)
}
