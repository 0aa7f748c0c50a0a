package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/courserec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("course", cel.DynType),
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Compile 编译布尔表达式，不做缓存；调用方在请求或过滤器上持有返回的 Program。表达式语法为 CEL：
//
//	course.credits >= 3.0
//	!course.has_exam && course.faculty == "IE"
//	course.workload != null && course.workload <= 3.0
//	item.semantic > 0.5
//	label.recall_source == "catalog"
//
// course 字段：id、title、credits、has_exam、exam_a、exam_b、faculty、
// avg_grade、workload、general（评分缺失时为 null）、prereq_groups。
func Compile(expr string) (cel.Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return prg, nil
}

// Eval 是针对单个候选课程的表达式求值器。
type Eval struct {
	item *core.Item
}

func NewEval(item *core.Item) *Eval {
	return &Eval{item: item}
}

// Run 对当前候选执行已编译的表达式；nil Program 恒为 true。
func (e *Eval) Run(prg cel.Program) (bool, error) {
	if prg == nil {
		return true, nil
	}
	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func (e *Eval) buildInput() map[string]any {
	it := e.item
	course := map[string]any{}
	if c := it.Course; c != nil {
		course = map[string]any{
			"id":            c.ID,
			"title":         c.Title,
			"credits":       c.Credits,
			"has_exam":      c.HasExam(),
			"exam_a":        c.ExamDateA,
			"exam_b":        c.ExamDateB,
			"faculty":       c.Faculty,
			"avg_grade":     c.AverageGrade(),
			"workload":      optionalRating(c.WorkloadRating),
			"general":       optionalRating(c.GeneralRating),
			"prereq_groups": int64(len(c.Prerequisites)),
		}
	}
	labels := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}
	return map[string]any{
		"course": course,
		"item": map[string]any{
			"id":       it.ID,
			"semantic": it.SemanticScore,
			"score":    it.Score,
			"features": it.Features,
		},
		"label": labels,
	}
}

func optionalRating(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
