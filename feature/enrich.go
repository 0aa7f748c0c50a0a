package feature

import (
	"context"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/utils"
)

// RatingEnrichNode 用 RatingProvider 补全候选课程缺失的负载/总体评分。
// 已有评分不会被覆盖。评分不是硬约束，Provider 出错时只记日志，原样返回候选。
type RatingEnrichNode struct {
	Provider core.RatingProvider
}

func (n *RatingEnrichNode) Name() string        { return "feature.ratings" }
func (n *RatingEnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *RatingEnrichNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Provider == nil || len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil || it.Course == nil {
			continue
		}
		if it.Course.WorkloadRating == nil || it.Course.GeneralRating == nil {
			ids = append(ids, it.Course.ID)
		}
	}
	if len(ids) == 0 {
		return items, nil
	}

	ratings, err := n.Provider.BatchGetRatings(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("provider", n.Provider.Name()).Int("courses", len(ids)).Msg("rating enrichment skipped")
		return items, nil
	}

	for _, it := range items {
		if it == nil || it.Course == nil {
			continue
		}
		r, ok := ratings[it.Course.ID]
		if !ok {
			continue
		}
		c := it.Course
		if (c.WorkloadRating != nil || r.Workload == nil) && (c.GeneralRating != nil || r.General == nil) {
			continue
		}
		// Course 在请求间共享，修改前先复制
		c = c.Clone()
		if c.WorkloadRating == nil {
			c.WorkloadRating = copyRating(r.Workload)
		}
		if c.GeneralRating == nil {
			c.GeneralRating = copyRating(r.General)
		}
		it.Course = c
		it.PutLabel("rating_source", utils.Label{Value: n.Provider.Name(), Source: "feature"})
	}
	return items, nil
}

func copyRating(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := *v
	return &r
}
