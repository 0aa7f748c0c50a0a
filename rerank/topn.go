package rerank

import (
	"context"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/conv"
)

// ParamLimit 是请求级截断数量在 RecommendContext.Params 中的 key
const ParamLimit = "limit"

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 门课程。
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.WeightedNode{},     // 排序
//	        &rerank.TopNNode{N: 20},  // 截取 Top 20
//	    },
//	}
//
// 请求参数 rctx.Params["limit"] 大于 0 时优先于 N；两者都 <= 0 时不截断。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil {
		if v := conv.ConfigGetInt(rctx.Params, ParamLimit, 0); v > 0 {
			limit = v
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
