package filter

import (
	"context"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
	"github.com/rushteam/courserec/pkg/utils"
)

// FilterNode 是过滤 Node，组合多个过滤器。任何一个过滤器返回 true，该课程就被过滤掉。
// Filters 为空时使用 EligibilityFilters()。
//
// 幸存课程会填充 AverageGrade；被过滤的课程写入 filtered 标签并计入指标。
// 实现 Preparer 的过滤器每次 Process 只准备一次，准备失败（如表达式无法编译）时整个节点失败。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.eligibility"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	filters := n.Filters
	if len(filters) == 0 {
		filters = EligibilityFilters()
	}
	out := make([]*core.Item, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}
	filters, err := prepare(ctx, rctx, filters)
	if err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx)

	for _, item := range items {
		if item == nil {
			continue
		}

		reason, err := n.check(ctx, filters, rctx, item)
		if err != nil {
			metrics.FilteredCandidates.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("course_id", item.ID).Str("filter", reason).Msg("skip candidate on filter error")
			continue
		}
		if reason != "" {
			metrics.FilteredCandidates.WithLabelValues(reason).Inc()
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}

		item.AverageGrade = item.Course.AverageGrade()
		out = append(out, item)
	}

	log.Debug().Int("in", len(items)).Int("out", len(out)).Msg("eligibility filtered")
	return out, nil
}

// check 返回第一个命中的过滤器名称；出错时返回出错的过滤器名称与错误。
func (n *FilterNode) check(ctx context.Context, filters []Filter, rctx *core.RecommendContext, item *core.Item) (string, error) {
	if item.Course == nil {
		return "", errNilCourse
	}
	for _, f := range filters {
		hit, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			return f.Name(), err
		}
		if hit {
			return f.Name(), nil
		}
	}
	return "", nil
}
