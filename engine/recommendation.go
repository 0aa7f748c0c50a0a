package engine

import (
	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/utils"
)

// Recommendation 是输出给上游（Web / 对话层）的一条推荐。
type Recommendation struct {
	ID                       string             `json:"id"`
	Title                    string             `json:"title"`
	Credits                  float64            `json:"credits"`
	ExamDateA                string             `json:"examDateA"`
	ExamDateB                string             `json:"examDateB"`
	WorkloadRating           *float64           `json:"workloadRating"`
	GeneralRating            *float64           `json:"generalRating"`
	AverageGradeAllSemesters float64            `json:"averageGradeAllSemesters"`
	SemanticScore            float64            `json:"semanticScore"`
	CombinedScore            float64            `json:"combinedScore"`
	ReviewsSummaryRaw        string             `json:"reviewsSummaryRaw"`
	Description              string             `json:"description"`
	Prerequisites            core.Prerequisites `json:"prerequisites"`

	Labels map[string]string `json:"labels,omitempty"`
}

func newRecommendation(it *core.Item, explain bool) Recommendation {
	c := it.Course
	prereqs := c.Prerequisites.Clone()
	if prereqs == nil {
		prereqs = core.Prerequisites{}
	}
	rec := Recommendation{
		ID:                       c.ID,
		Title:                    c.Title,
		Credits:                  c.Credits,
		ExamDateA:                c.ExamDateA,
		ExamDateB:                c.ExamDateB,
		WorkloadRating:           c.WorkloadRating,
		GeneralRating:            c.GeneralRating,
		AverageGradeAllSemesters: it.AverageGrade,
		SemanticScore:            it.SemanticScore,
		CombinedScore:            it.Score,
		ReviewsSummaryRaw:        c.ReviewsSummaryRaw,
		Description:              c.Description,
		Prerequisites:            prereqs,
	}
	if explain {
		rec.Labels = utils.LabelValues(it.Labels)
	}
	return rec
}
