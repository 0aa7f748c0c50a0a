package filter

import (
	"context"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/dsl"
	"github.com/rushteam/courserec/pkg/logging"
)

var errNilCourse = core.NewDomainError(core.ModuleFilter, core.ErrorCodeMalformed, "candidate has no course")

// Takeable 先修条件是否满足：条件为空，或存在一组全部包含在已修集合中。
func Takeable(prereqs core.Prerequisites, completed core.CompletedSet) bool {
	return prereqs.Satisfied(completed)
}

// EligibilityFilters 返回资格过滤链，按顺序短路执行：
// 先修 -> 考试 -> 学分 -> 已修 -> 表达式。
func EligibilityFilters() []Filter {
	return []Filter{
		&PrerequisiteFilter{},
		&ExamFilter{},
		&CreditFilter{},
		&CompletedFilter{},
		&ExprFilter{},
	}
}

// Eligibility 是资格过滤的纯函数形式：返回满足条件的候选（保持输入顺序），
// 并为幸存者填充 AverageGrade。单个候选出错只跳过该候选。
// criteria.Expr 需事先校验，无法编译时没有候选通过。
func Eligibility(ctx context.Context, items []*core.Item, completed core.CompletedSet, criteria core.FilterCriteria) []*core.Item {
	rctx := &core.RecommendContext{Completed: completed, Criteria: criteria}
	out, err := (&FilterNode{}).Process(ctx, rctx, items)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("eligibility prepare failed")
		return []*core.Item{}
	}
	return out
}

// PrerequisiteFilter 过滤先修条件未满足的课程。
type PrerequisiteFilter struct{}

func (f *PrerequisiteFilter) Name() string { return "filter.prerequisite" }

func (f *PrerequisiteFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item.Course == nil {
		return false, errNilCourse
	}
	return !Takeable(item.Course.Prerequisites, rctx.Completed), nil
}

// ExamFilter 在学生要求无考试时过滤有 A 考期的课程。
type ExamFilter struct{}

func (f *ExamFilter) Name() string { return "filter.exam" }

func (f *ExamFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item.Course == nil {
		return false, errNilCourse
	}
	return rctx.Criteria.NoExam && item.Course.HasExam(), nil
}

// CreditFilter 过滤学分低于下限的课程。
type CreditFilter struct{}

func (f *CreditFilter) Name() string { return "filter.credits" }

func (f *CreditFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item.Course == nil {
		return false, errNilCourse
	}
	return item.Course.Credits < rctx.Criteria.MinCredits, nil
}

// CompletedFilter 过滤已修课程，课程号的前导零写法不影响结果。
type CompletedFilter struct{}

func (f *CompletedFilter) Name() string { return "filter.completed" }

func (f *CompletedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item.Course == nil {
		return false, errNilCourse
	}
	return rctx.Completed.Contains(item.Course.ID), nil
}

// ExprFilter 执行 CEL 约束表达式，表达式为 false 的课程被过滤。
// Expr 非空时优先于 rctx.Criteria.Expr，可在 Pipeline 配置中固定一条规则。
//
//	course.credits >= 3.0 && course.faculty == "CS"
//
// 表达式在 Prepare 阶段编译一次，无法编译返回 INVALID_INPUT；
// 求值错误（如访问不存在的字段）只跳过当前候选。
type ExprFilter struct {
	Expr string

	program cel.Program
}

// NewExprFilter 立即编译 expr，用于配置中固定的规则。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := compileExpr(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, program: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) Prepare(_ context.Context, rctx *core.RecommendContext) (Filter, error) {
	if f.program != nil {
		return f, nil
	}
	expr := f.Expr
	if expr == "" {
		expr = rctx.Criteria.Expr
	}
	if expr == "" {
		return nil, nil
	}
	prg, err := compileExpr(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, program: prg}, nil
}

func (f *ExprFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.program == nil {
		prepared, err := f.Prepare(ctx, rctx)
		if err != nil || prepared == nil {
			return false, err
		}
		return prepared.ShouldFilter(ctx, rctx, item)
	}
	if item.Course == nil {
		return false, errNilCourse
	}
	ok, err := dsl.NewEval(item).Run(f.program)
	if err != nil {
		return false, core.WrapDomainError(core.ModuleFilter, core.ErrorCodeMalformed, "evaluate filter expression", err)
	}
	return !ok, nil
}

func compileExpr(expr string) (cel.Program, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput, "compile filter expression", err)
	}
	return prg, nil
}
