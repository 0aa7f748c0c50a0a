package feature

import "math"

// Normalizer 是特征归一化接口
type Normalizer interface {
	// Normalize 归一化特征
	Normalize(features map[string]float64) map[string]float64
	// NormalizeValueWithKey 归一化单个值（指定特征名）
	NormalizeValueWithKey(key string, value float64) float64
}

// MinMaxNormalizer Min-Max 归一化
// 公式: x' = (x - min) / (max - min)，结果再裁剪到 [0, 1]
// 未配置区间或区间退化（max <= min）的特征输出 0
type MinMaxNormalizer struct {
	Min map[string]float64 // 特征最小值，缺省为 0
	Max map[string]float64 // 特征最大值
}

// NewMinMaxNormalizer 创建 Min-Max 归一化器
func NewMinMaxNormalizer(min, max map[string]float64) *MinMaxNormalizer {
	return &MinMaxNormalizer{
		Min: min,
		Max: max,
	}
}

// Normalize 归一化特征
func (n *MinMaxNormalizer) Normalize(features map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(features))
	for k, v := range features {
		normalized[k] = n.NormalizeValueWithKey(k, v)
	}
	return normalized
}

// NormalizeValueWithKey 归一化单个值（指定特征名）
func (n *MinMaxNormalizer) NormalizeValueWithKey(key string, value float64) float64 {
	min := n.Min[key]
	max, ok := n.Max[key]
	if !ok || max <= min {
		return 0
	}
	return Clip01((value - min) / (max - min))
}

// Clip01 把值裁剪到 [0, 1]，NaN 视为 0。
func Clip01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
