package core

import "github.com/rushteam/courserec/pkg/utils"

// Item 是推荐链路中的统一承载结构：课程、特征、分数、标签。
// Labels 用于解释与观测；Score 是加权组合分数，用于排序决策。
type Item struct {
	ID     string
	Course *Course

	// SemanticScore 是召回阶段附带的查询相似度，[0,1]
	SemanticScore float64

	// AverageGrade 是资格过滤后计算的历史平均分（0-100）
	AverageGrade float64

	// Features 是归一化后的特征，key 见 FeatureNames
	Features map[string]float64

	Score  float64
	Labels map[string]utils.Label
}

func NewItem(course *Course) *Item {
	id := ""
	if course != nil {
		id = course.ID
	}
	return &Item{
		ID:       id,
		Course:   course,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Clone 复制 Item 的可变部分（特征、标签）；Course 只读，共享引用。
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	out.Features = make(map[string]float64, len(it.Features))
	for k, v := range it.Features {
		out.Features[k] = v
	}
	out.Labels = make(map[string]utils.Label, len(it.Labels))
	for k, v := range it.Labels {
		out.Labels[k] = v
	}
	return &out
}
