package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/store"
)

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) BatchGetRatings(context.Context, []string) (map[string]core.CourseRatings, error) {
	return nil, errors.New("feature store down")
}

func TestRatingEnrichNode(t *testing.T) {
	shared := &core.Course{ID: "104031", GeneralRating: ptr(4)}
	items := []*core.Item{
		core.NewItem(shared),
		core.NewItem(&core.Course{ID: "234114", WorkloadRating: ptr(1), GeneralRating: ptr(1)}),
		core.NewItem(&core.Course{ID: "999"}),
	}
	provider := NewStaticRatingProvider(map[string]core.CourseRatings{
		"00104031": {Workload: ptr(3), General: ptr(2)},
		"234114":   {Workload: ptr(5), General: ptr(5)},
	})

	out, err := (&RatingEnrichNode{Provider: provider}).Process(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.NotNil(t, out[0].Course.WorkloadRating)
	assert.Equal(t, 3.0, *out[0].Course.WorkloadRating)
	assert.Equal(t, 4.0, *out[0].Course.GeneralRating, "existing rating is kept")
	assert.Nil(t, shared.WorkloadRating, "shared course is not mutated")
	assert.Equal(t, "static", out[0].Labels["rating_source"].Value)

	assert.Equal(t, 1.0, *out[1].Course.WorkloadRating)
	assert.Nil(t, out[2].Course.WorkloadRating)
}

func TestRatingEnrichNodeProviderError(t *testing.T) {
	items := []*core.Item{core.NewItem(&core.Course{ID: "1"})}
	out, err := (&RatingEnrichNode{Provider: failingProvider{}}).Process(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	assert.Equal(t, items, out)
	assert.Nil(t, out[0].Course.WorkloadRating)
}

func TestStoreRatingProvider(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	p := NewStoreRatingProvider(kv, "")
	require.NoError(t, p.Put(ctx, "0104031", core.CourseRatings{Workload: ptr(2.5)}))
	require.NoError(t, p.Put(ctx, "2", core.CourseRatings{Workload: ptr(9)}))
	require.NoError(t, kv.Set(ctx, "ratings:3", []byte("not json")))

	got, err := p.BatchGetRatings(ctx, []string{"104031", "2", "3", "4"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.5, *got["104031"].Workload)
	assert.Nil(t, got["104031"].General)
	assert.Equal(t, "store:memory", p.Name())
}
