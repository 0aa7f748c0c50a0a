package core

// FilterCriteria 是请求级硬约束。
type FilterCriteria struct {
	NoExam     bool    `json:"noExam" yaml:"no_exam"`
	MinCredits float64 `json:"minCredits" yaml:"min_credits" validate:"gte=0"`

	// Expr 是可选的 CEL 布尔表达式，作为额外硬约束，例如
	//   course.credits >= 3.0 && course.faculty == "IE"
	Expr string `json:"expr,omitempty" yaml:"expr"`
}

// WeightVector 是五个排序因子的权重。引擎不强制归一化，
// 但权重之和为 1 时组合分数稳定落在 [0,1]。
type WeightVector struct {
	Semantic      float64 `json:"semantic" yaml:"semantic" validate:"gte=0"`
	Credits       float64 `json:"credits" yaml:"credits" validate:"gte=0"`
	AvgGrade      float64 `json:"avgGrade" yaml:"avg_grade" validate:"gte=0"`
	Workload      float64 `json:"workload" yaml:"workload" validate:"gte=0"`
	GeneralRating float64 `json:"generalRating" yaml:"general_rating" validate:"gte=0"`
}

// EqualWeights 返回五个因子各 0.2 的权重。
func EqualWeights() WeightVector {
	return WeightVector{Semantic: 0.2, Credits: 0.2, AvgGrade: 0.2, Workload: 0.2, GeneralRating: 0.2}
}

func (w WeightVector) Sum() float64 {
	return w.Semantic + w.Credits + w.AvgGrade + w.Workload + w.GeneralRating
}

// Normalized 返回按总和缩放到 1 的副本；总和为 0 时原样返回。
// 引擎本身不调用它，由调用方（CLI、对话式调权）决定是否使用。
func (w WeightVector) Normalized() WeightVector {
	sum := w.Sum()
	if sum <= 0 {
		return w
	}
	return WeightVector{
		Semantic:      w.Semantic / sum,
		Credits:       w.Credits / sum,
		AvgGrade:      w.AvgGrade / sum,
		Workload:      w.Workload / sum,
		GeneralRating: w.GeneralRating / sum,
	}
}

// Map 以特征名为 key 导出权重，供 model.WeightedSumModel 使用。
func (w WeightVector) Map() map[string]float64 {
	return map[string]float64{
		FeatureSemantic:      w.Semantic,
		FeatureCredits:       w.Credits,
		FeatureAvgGrade:      w.AvgGrade,
		FeatureWorkload:      w.Workload,
		FeatureGeneralRating: w.GeneralRating,
	}
}

// 归一化特征名
const (
	FeatureSemantic      = "semantic"
	FeatureCredits       = "credits"
	FeatureAvgGrade      = "avg_grade"
	FeatureWorkload      = "workload"
	FeatureGeneralRating = "general_rating"
)

// FeatureNames 按固定顺序列出五个特征。
var FeatureNames = []string{
	FeatureSemantic,
	FeatureCredits,
	FeatureAvgGrade,
	FeatureWorkload,
	FeatureGeneralRating,
}
