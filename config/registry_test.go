package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/config"
	_ "github.com/rushteam/courserec/config/builders"
	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/filter"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/recall"
	"github.com/rushteam/courserec/rerank"
	"github.com/rushteam/courserec/store"
)

func TestSupportedTypes(t *testing.T) {
	assert.Equal(t, []string{
		"feature.normalize",
		"feature.ratings",
		"filter.eligibility",
		"rank.weighted",
		"recall.catalog",
		"rerank.topn",
	}, config.SupportedTypes())
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  name: courses
  nodes:
    - type: recall.catalog
      config: {limit: 500, retry_backoff: 50ms, max_retries: 2}
    - type: filter.eligibility
      config:
        expr: 'course.credits >= 2.0'
        blacklist: {course_ids: ["234114"]}
    - type: feature.normalize
    - type: rank.weighted
    - type: rerank.topn
      config: {n: 5}
`))
	require.NoError(t, err)

	deps := &config.Deps{
		Index:        store.NewMemoryVectorService(),
		Collections:  map[string]string{"s": "c"},
		CatalogLimit: 10000,
	}
	p, err := config.BuildPipeline(cfg, deps)
	require.NoError(t, err)
	require.Len(t, p.Nodes, 5)

	r, ok := p.Nodes[0].(*recall.CatalogRecall)
	require.True(t, ok)
	assert.Equal(t, 500, r.Limit)
	assert.Equal(t, 2, r.MaxRetries)
	assert.Equal(t, deps.Collections, r.Collections)

	fn, ok := p.Nodes[1].(*filter.FilterNode)
	require.True(t, ok)
	assert.Len(t, fn.Filters, len(filter.EligibilityFilters())+2)

	topn, ok := p.Nodes[4].(*rerank.TopNNode)
	require.True(t, ok)
	assert.Equal(t, 5, topn.N)
}

func TestBuildPipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		deps *config.Deps
	}{
		{
			name: "unsupported type",
			yaml: "pipeline: {name: x, nodes: [{type: rank.deepfm}]}",
			deps: &config.Deps{},
		},
		{
			name: "recall without index",
			yaml: "pipeline: {name: x, nodes: [{type: recall.catalog}]}",
			deps: &config.Deps{},
		},
		{
			name: "blacklist key without store",
			yaml: "pipeline: {name: x, nodes: [{type: filter.eligibility, config: {blacklist: {key: 'bl:{semester}'}}}]}",
			deps: &config.Deps{},
		},
		{
			name: "expr does not compile",
			yaml: "pipeline: {name: x, nodes: [{type: filter.eligibility, config: {expr: 'course.credits +'}}]}",
			deps: &config.Deps{},
		},
		{
			name: "negative topn",
			yaml: "pipeline: {name: x, nodes: [{type: rerank.topn, config: {n: -1}}]}",
			deps: &config.Deps{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pipeline.ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = config.BuildPipeline(cfg, tt.deps)
			assert.Error(t, err)
		})
	}
}

func TestValidatePipelineConfigUnsupported(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte("pipeline: {name: x, nodes: [{type: recall.hot}]}"))
	require.NoError(t, err)
	err = config.ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err))
	assert.Contains(t, err.Error(), "recall.catalog")
}
