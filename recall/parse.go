package recall

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/conv"
)

// 目录索引元数据字段（离线预处理产出的列名）
const (
	MetaCourseID      = "course_id"
	MetaTitle         = "title"
	MetaDescription   = "description"
	MetaCredits       = "credits"
	MetaPrerequisites = "prerequisites"
	MetaExamA         = "moed_a"
	MetaExamB         = "moed_b"
	MetaFaculty       = "faculty"
	MetaAvgGrades     = "avg_grades"
	MetaWorkload      = "workload_rating"
	MetaGeneral       = "general_rating"
	MetaReviews       = "all_reviews"
)

// ParseCourse 把一条索引元数据解析为 Course。
//
// 规则：
//   - 课程号取 course_id，缺失时退回索引记录 ID；两者都没有视为 MALFORMED
//   - credits 缺失为 0；存在但不是数字视为 MALFORMED
//   - prerequisites / avg_grades 可以是原生结构，也可以是 JSON 字符串；无法解析视为 MALFORMED
//   - 评分不是 [0,5] 内的数字时按缺失处理
func ParseCourse(recordID string, meta map[string]any) (*core.Course, error) {
	id := strings.TrimSpace(str(meta[MetaCourseID]))
	if id == "" {
		id = strings.TrimSpace(recordID)
	}
	if id == "" {
		return nil, malformed(recordID, "missing course id", nil)
	}

	c := &core.Course{
		ID:                id,
		Title:             str(meta[MetaTitle]),
		Description:       str(meta[MetaDescription]),
		ExamDateA:         strings.TrimSpace(str(meta[MetaExamA])),
		ExamDateB:         strings.TrimSpace(str(meta[MetaExamB])),
		Faculty:           str(meta[MetaFaculty]),
		ReviewsSummaryRaw: str(meta[MetaReviews]),
		WorkloadRating:    rating(meta[MetaWorkload]),
		GeneralRating:     rating(meta[MetaGeneral]),
	}

	if raw, ok := meta[MetaCredits]; ok && raw != nil && raw != "" {
		credits, ok := conv.ToFloat64(raw)
		if !ok || credits < 0 {
			return nil, malformed(id, fmt.Sprintf("invalid credits %v", raw), nil)
		}
		c.Credits = credits
	}

	prereqs, err := ParsePrerequisites(meta[MetaPrerequisites])
	if err != nil {
		return nil, malformed(id, "invalid prerequisites", err)
	}
	c.Prerequisites = prereqs

	grades, err := ParseGrades(meta[MetaAvgGrades])
	if err != nil {
		return nil, malformed(id, "invalid avg_grades", err)
	}
	c.HistoricalGrades = grades

	return c, nil
}

// ParsePrerequisites 接受 [][]string、[]any（元素为 []any）或其 JSON 字符串。
// nil、空串、"[]" 表示无先修，统一返回 nil。
func ParsePrerequisites(v any) (core.Prerequisites, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case core.Prerequisites:
		return val.Clone(), nil
	case [][]string:
		return core.Prerequisites(val).Clone(), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" || s == "null" {
			return nil, nil
		}
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, err
		}
		return prereqGroups(raw)
	case []any:
		return prereqGroups(val)
	default:
		return nil, fmt.Errorf("unsupported prerequisites type %T", v)
	}
}

func prereqGroups(raw []any) (core.Prerequisites, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(core.Prerequisites, 0, len(raw))
	for i, g := range raw {
		ids, ok := conv.ToStringSlice(g)
		if !ok {
			return nil, fmt.Errorf("group %d: expected list of course ids, got %T", i, g)
		}
		group := make([]string, 0, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				group = append(group, id)
			}
		}
		out = append(out, group)
	}
	return out, nil
}

// ParseGrades 接受 map[string]any / map[string]float64 或其 JSON 字符串（学期 -> 平均分）。
// 单个学期的非数字成绩被忽略。
func ParseGrades(v any) (map[string]float64, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]float64:
		if len(val) == 0 {
			return nil, nil
		}
		out := make(map[string]float64, len(val))
		for k, g := range val {
			out[k] = g
		}
		return out, nil
	case map[string]any:
		out := conv.MapToFloat64(val)
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" || s == "null" {
			return nil, nil
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, err
		}
		return ParseGrades(raw)
	default:
		return nil, fmt.Errorf("unsupported avg_grades type %T", v)
	}
}

// CourseMetadata 是 ParseCourse 的逆过程，用于把课程写入索引。
func CourseMetadata(c *core.Course) map[string]any {
	m := map[string]any{
		MetaCourseID:    c.ID,
		MetaTitle:       c.Title,
		MetaDescription: c.Description,
		MetaCredits:     c.Credits,
		MetaExamA:       c.ExamDateA,
		MetaExamB:       c.ExamDateB,
		MetaFaculty:     c.Faculty,
		MetaReviews:     c.ReviewsSummaryRaw,
	}
	if prereqs, err := json.Marshal(c.Prerequisites); err == nil && len(c.Prerequisites) > 0 {
		m[MetaPrerequisites] = string(prereqs)
	}
	if grades, err := json.Marshal(c.HistoricalGrades); err == nil && len(c.HistoricalGrades) > 0 {
		m[MetaAvgGrades] = string(grades)
	}
	if c.WorkloadRating != nil {
		m[MetaWorkload] = *c.WorkloadRating
	}
	if c.GeneralRating != nil {
		m[MetaGeneral] = *c.GeneralRating
	}
	return m
}

func str(v any) string {
	s, _ := conv.ToString(v)
	return s
}

func rating(v any) *float64 {
	f, ok := conv.ToFloat64(v)
	if !ok || f < 0 || f > 5 {
		return nil
	}
	return &f
}

func malformed(id, msg string, err error) error {
	return core.WrapDomainError(core.ModuleRecall, core.ErrorCodeMalformed, fmt.Sprintf("course %s: %s", id, msg), err)
}
