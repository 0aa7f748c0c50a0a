package filter

import (
	"context"

	"github.com/rushteam/courserec/core"
)

// Filter 是过滤器的抽象接口，用于判断一门候选课程是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
// 返回 error 时该候选被跳过，不影响同批其他候选。
type Filter interface {
	// Name 返回过滤器名称，同时作为 filtered 标签与指标中的 reason
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 由需要按请求预处理的过滤器实现（编译表达式、读取黑名单）。
// FilterNode 在每次 Process 开始时调用一次 Prepare，本次请求改用返回的过滤器；
// 返回 nil Filter 表示本次请求不需要该过滤器，返回错误则整个节点失败。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// prepare 按请求展开过滤器列表
func prepare(ctx context.Context, rctx *core.RecommendContext, filters []Filter) ([]Filter, error) {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		p, ok := f.(Preparer)
		if !ok {
			out = append(out, f)
			continue
		}
		prepared, err := p.Prepare(ctx, rctx)
		if err != nil {
			return nil, err
		}
		if prepared != nil {
			out = append(out, prepared)
		}
	}
	return out, nil
}
