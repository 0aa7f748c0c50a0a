package builders

import (
	"fmt"

	"github.com/rushteam/courserec/config"
	"github.com/rushteam/courserec/feature"
	"github.com/rushteam/courserec/filter"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/conv"
	"github.com/rushteam/courserec/rank"
	"github.com/rushteam/courserec/recall"
	"github.com/rushteam/courserec/rerank"
)

func init() {
	config.Register("recall.catalog", BuildCatalogRecallNode)
	config.Register("filter.eligibility", BuildEligibilityNode)
	config.Register("feature.ratings", BuildRatingEnrichNode)
	config.Register("feature.normalize", BuildNormalizeNode)
	config.Register("rank.weighted", BuildWeightedNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildCatalogRecallNode
//
//	- type: recall.catalog
//	  config: {limit: 10000, metric: cosine, retry_backoff: 500ms, max_retries: 1}
func BuildCatalogRecallNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	if deps.Index == nil {
		return nil, fmt.Errorf("recall.catalog: vector index not configured")
	}
	return &recall.CatalogRecall{
		Index:        deps.Index,
		Collections:  deps.Collections,
		Limit:        conv.ConfigGetInt(cfg, "limit", deps.CatalogLimit),
		Metric:       conv.ConfigGet(cfg, "metric", deps.Metric),
		RetryBackoff: conv.ConfigGetDuration(cfg, "retry_backoff", deps.RetryBackoff),
		MaxRetries:   conv.ConfigGetInt(cfg, "max_retries", deps.MaxRetries),
	}, nil
}

// BuildEligibilityNode
//
//	- type: filter.eligibility
//	  config:
//	    expr: 'course.faculty != "PE"'
//	    blacklist: {course_ids: ["234114"], key: "blacklist:{semester}"}
func BuildEligibilityNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	filters := filter.EligibilityFilters()
	if expr := conv.ConfigGet(cfg, "expr", ""); expr != "" {
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("filter.eligibility: %w", err)
		}
		filters = append(filters, f)
	}
	if bl, ok := cfg["blacklist"].(map[string]any); ok {
		ids, _ := conv.ToStringSlice(bl["course_ids"])
		key := conv.ConfigGet(bl, "key", "")
		if key != "" && deps.Blacklist == nil {
			return nil, fmt.Errorf("filter.eligibility: blacklist key %q requires a store", key)
		}
		filters = append(filters, filter.NewBlacklistFilter(ids, deps.Blacklist, key))
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildRatingEnrichNode(deps *config.Deps, _ map[string]any) (pipeline.Node, error) {
	return &feature.RatingEnrichNode{Provider: deps.Ratings}, nil
}

func BuildNormalizeNode(_ *config.Deps, _ map[string]any) (pipeline.Node, error) {
	return &feature.NormalizeNode{}, nil
}

func BuildWeightedNode(_ *config.Deps, _ map[string]any) (pipeline.Node, error) {
	return &rank.WeightedNode{}, nil
}

func BuildTopNNode(_ *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must be >= 0")
	}
	return &rerank.TopNNode{N: n}, nil
}
