package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

func course(id string, credits float64, examA string, prereqs core.Prerequisites) *core.Item {
	return core.NewItem(&core.Course{ID: id, Credits: credits, ExamDateA: examA, Prerequisites: prereqs})
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestTakeable(t *testing.T) {
	tests := []struct {
		name      string
		prereqs   core.Prerequisites
		completed core.CompletedSet
		want      bool
	}{
		{name: "nil prerequisites", prereqs: nil, completed: nil, want: true},
		{name: "empty list", prereqs: core.Prerequisites{}, completed: core.NewCompletedSet(), want: true},
		{name: "single empty group", prereqs: core.Prerequisites{{}}, completed: core.NewCompletedSet(), want: true},
		{name: "group satisfied", prereqs: core.Prerequisites{{"1", "2"}}, completed: core.NewCompletedSet("1", "2", "3"), want: true},
		{name: "group partially satisfied", prereqs: core.Prerequisites{{"1", "2"}}, completed: core.NewCompletedSet("1"), want: false},
		{name: "second group satisfied", prereqs: core.Prerequisites{{"1", "2"}, {"3"}}, completed: core.NewCompletedSet("3"), want: true},
		{name: "leading zeros", prereqs: core.Prerequisites{{"00104031"}}, completed: core.NewCompletedSet("104031"), want: true},
		{name: "nothing completed", prereqs: core.Prerequisites{{"1"}}, completed: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Takeable(tt.prereqs, tt.completed))
		})
	}
}

func TestEligibility(t *testing.T) {
	items := []*core.Item{
		course("100", 3, "", nil),
		course("200", 4, "2025-01-20", nil),
		course("300", 2, "", nil),
		course("400", 5, "", core.Prerequisites{{"100"}}),
		course("500", 5, "", core.Prerequisites{{"0999"}}),
		course("0600", 3, "", nil),
	}
	completed := core.NewCompletedSet("0100", "600")

	got := Eligibility(context.Background(), items, completed, core.FilterCriteria{NoExam: true, MinCredits: 3})
	assert.Equal(t, []string{"400"}, ids(got))
	assert.Equal(t, core.DefaultAverageGrade, got[0].AverageGrade)

	got = Eligibility(context.Background(), items, completed, core.FilterCriteria{})
	assert.Equal(t, []string{"200", "300", "400"}, ids(got))
}

func TestEligibilityFilteredLabel(t *testing.T) {
	items := []*core.Item{
		course("1", 1, "", nil),
		course("2", 5, "2025-01-01", nil),
	}
	out := Eligibility(context.Background(), items, nil, core.FilterCriteria{NoExam: true, MinCredits: 2})
	assert.Empty(t, out)
	assert.NotNil(t, out)
	assert.Equal(t, "filter.credits", items[0].Labels["filtered"].Source)
	assert.Equal(t, "filter.exam", items[1].Labels["filtered"].Source)
}

func TestEligibilityAverageGrade(t *testing.T) {
	it := core.NewItem(&core.Course{ID: "1", HistoricalGrades: map[string]float64{"a": 80, "b": 90}})
	out := Eligibility(context.Background(), []*core.Item{it}, nil, core.FilterCriteria{})
	require.Len(t, out, 1)
	assert.InDelta(t, 85.0, out[0].AverageGrade, 1e-9)
}

func TestEligibilitySkipsBrokenCandidates(t *testing.T) {
	items := []*core.Item{
		{ID: "no-course"},
		nil,
		course("1", 4, "", nil),
		course("2", 2, "", nil),
	}
	out := Eligibility(context.Background(), items, nil, core.FilterCriteria{Expr: "course.credits >= 3.0"})
	assert.Equal(t, []string{"1"}, ids(out))

	// 表达式求值错误只跳过候选，不中断整批
	out = Eligibility(context.Background(), items[2:], nil, core.FilterCriteria{Expr: "course.missing_field > 1"})
	assert.Empty(t, out)
}

func TestExprFilter(t *testing.T) {
	it := core.NewItem(&core.Course{ID: "1", Credits: 3, Faculty: "CS"})
	rctx := &core.RecommendContext{}

	hit, err := (&ExprFilter{Expr: `course.faculty == "IE"`}).ShouldFilter(context.Background(), rctx, it)
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = (&ExprFilter{}).ShouldFilter(context.Background(), rctx, it)
	require.NoError(t, err)
	assert.False(t, hit)

	_, err = (&ExprFilter{Expr: "course.credits +"}).ShouldFilter(context.Background(), rctx, it)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestFilterNodeRejectsInvalidExpr(t *testing.T) {
	items := []*core.Item{course("1", 4, "", nil), course("2", 2, "", nil)}
	tests := []struct {
		name string
		expr string
	}{
		{name: "dangling operator", expr: "course.credits +"},
		{name: "unbalanced paren", expr: "(course.credits > 1"},
		{name: "non bool", expr: `"text"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&FilterNode{}).Process(context.Background(), &core.RecommendContext{Criteria: core.FilterCriteria{Expr: tt.expr}}, items)
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
			assert.Nil(t, out)
		})
	}
}

func TestNewExprFilter(t *testing.T) {
	_, err := NewExprFilter("course.credits +")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))

	f, err := NewExprFilter("course.credits >= 3.0")
	require.NoError(t, err)
	// 固定规则优先于请求中的表达式
	n := &FilterNode{Filters: []Filter{f}}
	out, err := n.Process(context.Background(), &core.RecommendContext{Criteria: core.FilterCriteria{Expr: "course.credits +"}}, []*core.Item{
		course("1", 4, "", nil),
		course("2", 2, "", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(out))
}
