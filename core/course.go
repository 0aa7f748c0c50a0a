package core

import (
	"sort"
	"strings"
)

// DefaultAverageGrade 是没有历史成绩的课程的默认平均分（0-100 分制）。
// 取中间偏下的值，避免无成绩课程被推到成绩轴的两端。
const DefaultAverageGrade = 60.0

// Course 是一个学期内的一门课程（不可变，请求内只读）。
type Course struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Credits   float64 `json:"credits"`
	ExamDateA string  `json:"examDateA,omitempty"` // 为空表示没有考试
	ExamDateB string  `json:"examDateB,omitempty"`
	Faculty   string  `json:"faculty,omitempty"`

	// Prerequisites 先修条件：组之间为“或”，组内为“且”
	Prerequisites Prerequisites `json:"prerequisites"`

	// HistoricalGrades 学期名 -> 期末平均分
	HistoricalGrades map[string]float64 `json:"historicalGrades,omitempty"`

	// 0-5 分评分，nil 表示缺失
	WorkloadRating *float64 `json:"workloadRating,omitempty"`
	GeneralRating  *float64 `json:"generalRating,omitempty"`

	Description       string `json:"description,omitempty"`
	ReviewsSummaryRaw string `json:"reviewsSummaryRaw,omitempty"`
}

// HasExam 返回课程是否安排了 A 考期。
func (c *Course) HasExam() bool {
	return strings.TrimSpace(c.ExamDateA) != ""
}

// AverageGrade 返回所有学期历史成绩的均值；没有成绩时返回 DefaultAverageGrade。
func (c *Course) AverageGrade() float64 {
	if len(c.HistoricalGrades) == 0 {
		return DefaultAverageGrade
	}
	// 按 key 排序累加，保证浮点结果与 map 遍历顺序无关
	keys := make([]string, 0, len(c.HistoricalGrades))
	for k := range c.HistoricalGrades {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sum float64
	for _, k := range keys {
		sum += c.HistoricalGrades[k]
	}
	return sum / float64(len(keys))
}

// Clone 返回深拷贝，供需要修改字段的节点使用（例如补全评分）。
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	out := *c
	out.Prerequisites = c.Prerequisites.Clone()
	if c.HistoricalGrades != nil {
		out.HistoricalGrades = make(map[string]float64, len(c.HistoricalGrades))
		for k, v := range c.HistoricalGrades {
			out.HistoricalGrades[k] = v
		}
	}
	if c.WorkloadRating != nil {
		v := *c.WorkloadRating
		out.WorkloadRating = &v
	}
	if c.GeneralRating != nil {
		v := *c.GeneralRating
		out.GeneralRating = &v
	}
	return &out
}

// Prerequisites 是“与组”的析取：只要有一组全部完成即可选课。
type Prerequisites [][]string

// Satisfied 判断先修条件是否被已修课程集合满足。
// 空条件恒成立；空组视为自动满足。
func (p Prerequisites) Satisfied(completed CompletedSet) bool {
	if len(p) == 0 {
		return true
	}
	for _, group := range p {
		ok := true
		for _, id := range group {
			if !completed.Contains(id) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (p Prerequisites) Clone() Prerequisites {
	if p == nil {
		return nil
	}
	out := make(Prerequisites, len(p))
	for i, g := range p {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// CanonicalCourseID 去掉首尾空白和前导零；全零的课程号归一为 "0"。
// "123"、"0123"、"00123" 的规范形式都是 "123"。
func CanonicalCourseID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// CompletedSet 是学生已修课程集合，按规范课程号存储。
type CompletedSet map[string]struct{}

// NewCompletedSet 用任意写法的课程号构建集合，空白项被忽略。
func NewCompletedSet(ids ...string) CompletedSet {
	set := make(CompletedSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s CompletedSet) Add(id string) {
	if c := CanonicalCourseID(id); c != "" {
		s[c] = struct{}{}
	}
}

// Contains 对课程号的任意前导零写法都返回一致结果。
func (s CompletedSet) Contains(id string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[CanonicalCourseID(id)]
	return ok
}

func (s CompletedSet) Len() int { return len(s) }

// IDs 返回排序后的规范课程号。
func (s CompletedSet) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
