package rank

import (
	"context"
	"sort"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/model"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/utils"
)

// WeightedNode 是加权组合排序 Node。
//   - 写入 labels：rank_model
//   - 更新 item.Score，返回按分数降序排列的新切片，输入切片顺序不变
//   - 同分按规范课程号升序，再按原始课程号升序
//
// Model 为空时使用请求权重 rctx.Weights 构造 model.WeightedSumModel。
type WeightedNode struct {
	Model model.RankModel
}

func (n *WeightedNode) Name() string        { return "rank.weighted" }
func (n *WeightedNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *WeightedNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	m := n.Model
	if m == nil {
		m = model.NewWeightedSumModel(rctx.Weights)
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		score, err := m.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: m.Name(), Source: "rank"})
		out = append(out, it)
	}

	SortByScore(out)
	return out, nil
}

// SortByScore 按 Score 降序原地排序，同分按课程号确定顺序。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ca, cb := core.CanonicalCourseID(a.ID), core.CanonicalCourseID(b.ID)
		if ca != cb {
			return lessID(ca, cb)
		}
		return a.ID < b.ID
	})
}

// lessID 数字课程号按数值比较（短的更小），其余按字典序。
func lessID(a, b string) bool {
	if isDigits(a) && isDigits(b) && len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
