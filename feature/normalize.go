package feature

import (
	"context"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pipeline"
)

// 固定量程
const (
	MaxAverageGrade = 100.0
	MaxRating       = 5.0
)

// NormalizeNode 把候选集的五个排序因子映射到 [0,1]，写入 item.Features：
//
//	semantic       召回相似度，原样保留（裁剪到 [0,1]）
//	credits        学分 / 当前候选集最大学分（最大为 0 时全部为 0）
//	avg_grade      平均分 / 100
//	workload       负载评分 / 5，缺失为 0
//	general_rating 总体评分 / 5，缺失为 0
//
// 学分的最大值取自当前（过滤后）的候选集，因此同一门课程在不同请求中的归一化值可能不同。
type NormalizeNode struct{}

func (n *NormalizeNode) Name() string        { return "feature.normalize" }
func (n *NormalizeNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *NormalizeNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	Normalize(items)
	return items, nil
}

// Normalize 原地写入归一化特征。
func Normalize(items []*core.Item) {
	var maxCredits float64
	for _, it := range items {
		if it != nil && it.Course != nil && it.Course.Credits > maxCredits {
			maxCredits = it.Course.Credits
		}
	}

	normalizer := NewMinMaxNormalizer(nil, map[string]float64{
		core.FeatureCredits:       maxCredits,
		core.FeatureAvgGrade:      MaxAverageGrade,
		core.FeatureWorkload:      MaxRating,
		core.FeatureGeneralRating: MaxRating,
	})

	for _, it := range items {
		if it == nil || it.Course == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64, len(core.FeatureNames))
		}
		c := it.Course
		it.Features[core.FeatureSemantic] = Clip01(it.SemanticScore)
		it.Features[core.FeatureCredits] = normalizer.NormalizeValueWithKey(core.FeatureCredits, c.Credits)
		it.Features[core.FeatureAvgGrade] = normalizer.NormalizeValueWithKey(core.FeatureAvgGrade, averageGrade(it))
		it.Features[core.FeatureWorkload] = normalizer.NormalizeValueWithKey(core.FeatureWorkload, optional(c.WorkloadRating))
		it.Features[core.FeatureGeneralRating] = normalizer.NormalizeValueWithKey(core.FeatureGeneralRating, optional(c.GeneralRating))
	}
}

// averageGrade 优先使用过滤阶段算好的平均分。
func averageGrade(it *core.Item) float64 {
	if it.AverageGrade > 0 {
		return it.AverageGrade
	}
	return it.Course.AverageGrade()
}

func optional(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
