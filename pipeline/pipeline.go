package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 → 过滤 → 特征 → 排序 → 重排。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 顺序执行各节点；任一节点失败或 ctx 结束即中止，错误保留原始分类（errors.Is 可用）。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		metrics.RecordNode(node.Name(), string(node.Kind()), start, len(next), err)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		logging.Ctx(ctx).Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}

// Append 追加节点，返回自身便于链式构建。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	p.Nodes = append(p.Nodes, nodes...)
	return p
}
