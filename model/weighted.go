package model

import (
	"github.com/rushteam/courserec/core"
)

// WeightedSumModel 实现线性加权：score = Σ w_f · feature_f。
//
// 特征按 core.FeatureNames 的固定顺序累加，同样的输入总是得到逐位相同的浮点结果。
// 缺失的特征按 0 处理；权重不做归一化。
type WeightedSumModel struct {
	Weights core.WeightVector
}

func NewWeightedSumModel(w core.WeightVector) *WeightedSumModel {
	return &WeightedSumModel{Weights: w}
}

func (m *WeightedSumModel) Name() string { return "weighted_sum" }

func (m *WeightedSumModel) Predict(features map[string]float64) (float64, error) {
	weights := m.Weights.Map()
	var score float64
	for _, name := range core.FeatureNames {
		score += weights[name] * features[name]
	}
	return score, nil
}
