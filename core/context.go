package core

import "github.com/rushteam/courserec/pkg/utils"

// RecommendContext 承载学生/学期/请求信息，贯穿整个 Pipeline 透传。
// 每次请求新建，节点之间只读共享。
type RecommendContext struct {
	RequestID string
	Semester  string

	// Completed 是学生已修课程（规范课程号）
	Completed CompletedSet

	Criteria FilterCriteria
	Weights  WeightVector

	// Query 是原始兴趣文本；QueryVector 是其向量（文本为空时为零向量）
	Query       string
	QueryVector []float64

	// Labels 是请求级标签，可驱动 Pipeline 行为或用于解释
	Labels map[string]utils.Label

	// Params 请求级扩展参数
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
