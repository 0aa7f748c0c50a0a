package engine

import (
	"github.com/go-playground/validator/v10"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/dsl"
)

// Request 是一次推荐请求。
type Request struct {
	Semester           string   `json:"semester" validate:"required"`
	CompletedCourseIDs []string `json:"completedCourseIds"`

	NoExam     bool    `json:"noExam"`
	MinCredits float64 `json:"minCredits" validate:"gte=0"`

	// Expr 可选的 CEL 约束，见 filter.ExprFilter
	Expr string `json:"expr,omitempty"`

	Query   string           `json:"query"`
	Weights core.WeightVector `json:"weights"`

	// Limit 大于 0 时只返回前 Limit 门课程
	Limit int `json:"limit,omitempty" validate:"gte=0"`

	// Explain 为 true 时在结果中带上标签
	Explain bool `json:"explain,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验请求，Expr 需能编译；失败返回 INVALID_INPUT。
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "invalid recommend request", err)
	}
	if r.Expr != "" {
		if _, err := dsl.Compile(r.Expr); err != nil {
			return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "invalid filter expression", err)
		}
	}
	return nil
}

// Criteria 返回请求中的硬约束
func (r *Request) Criteria() core.FilterCriteria {
	return core.FilterCriteria{NoExam: r.NoExam, MinCredits: r.MinCredits, Expr: r.Expr}
}
