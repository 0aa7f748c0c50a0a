// Package catalog 维护各学期课程目录的只读快照。
//
// Repository 持有一个不可变的 Snapshot，Reload 在后台构建新快照后原子替换；
// 读者永远看不到构建一半的目录。数据来源由 Source 提供（Store / SQLite）。
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
)

// Source 按学期加载课程。单条损坏的记录由实现自行跳过；
// 学期不存在返回 NOT_FOUND，后端不可达返回 UNAVAILABLE。
type Source interface {
	Name() string
	LoadSemester(ctx context.Context, semester string) ([]*core.Course, error)
}

// Snapshot 是某一时刻的目录：学期 -> 规范课程号 -> 课程。创建后不再修改。
type Snapshot struct {
	semesters map[string]map[string]*core.Course
}

// NewSnapshot 用学期 -> 课程列表构建快照；同一学期内规范课程号重复时保留先出现的。
func NewSnapshot(courses map[string][]*core.Course) *Snapshot {
	s := &Snapshot{semesters: make(map[string]map[string]*core.Course, len(courses))}
	for semester, list := range courses {
		byID := make(map[string]*core.Course, len(list))
		for _, c := range list {
			if c == nil {
				continue
			}
			key := core.CanonicalCourseID(c.ID)
			if _, dup := byID[key]; dup || key == "" {
				continue
			}
			byID[key] = c
		}
		s.semesters[semester] = byID
	}
	return s
}

// Get 按任意前导零写法查找课程。
func (s *Snapshot) Get(semester, id string) (*core.Course, bool) {
	byID, ok := s.semesters[semester]
	if !ok {
		return nil, false
	}
	c, ok := byID[core.CanonicalCourseID(id)]
	return c, ok
}

// HasSemester 判断快照中是否包含该学期
func (s *Snapshot) HasSemester(semester string) bool {
	_, ok := s.semesters[semester]
	return ok
}

// Semesters 返回排序后的学期列表
func (s *Snapshot) Semesters() []string {
	out := make([]string, 0, len(s.semesters))
	for k := range s.semesters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Courses 返回学期内全部课程，按规范课程号排序。
func (s *Snapshot) Courses(semester string) []*core.Course {
	byID := s.semesters[semester]
	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*core.Course, 0, len(keys))
	for _, k := range keys {
		out = append(out, byID[k])
	}
	return out
}

// Len 返回学期内课程数
func (s *Snapshot) Len(semester string) int {
	return len(s.semesters[semester])
}

// Repository 是目录仓库，注入到引擎中使用。
type Repository struct {
	source    Source
	semesters []string
	snapshot  atomic.Pointer[Snapshot]
}

// NewRepository 创建仓库，初始快照为空，调用 Reload 加载数据。
func NewRepository(source Source, semesters ...string) *Repository {
	r := &Repository{source: source, semesters: append([]string(nil), semesters...)}
	r.snapshot.Store(NewSnapshot(nil))
	return r
}

// Snapshot 返回当前快照
func (r *Repository) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Get 在当前快照中查找课程。
func (r *Repository) Get(semester, id string) (*core.Course, bool) {
	return r.Snapshot().Get(semester, id)
}

// HasSemester 判断当前快照是否已加载该学期
func (r *Repository) HasSemester(semester string) bool {
	return r.Snapshot().HasSemester(semester)
}

// Reload 并发加载所有学期，全部成功后原子替换快照；任一学期失败则保留旧快照。
func (r *Repository) Reload(ctx context.Context) error {
	if r.source == nil {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeConfiguration, "catalog source is not configured")
	}
	loaded := make([][]*core.Course, len(r.semesters))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, semester := range r.semesters {
		eg.Go(func() error {
			courses, err := r.source.LoadSemester(egCtx, semester)
			if err != nil {
				return fmt.Errorf("load semester %s from %s: %w", semester, r.source.Name(), err)
			}
			loaded[i] = courses
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	bySemester := make(map[string][]*core.Course, len(r.semesters))
	for i, semester := range r.semesters {
		bySemester[semester] = loaded[i]
	}
	snap := NewSnapshot(bySemester)
	r.snapshot.Store(snap)

	log := logging.Ctx(ctx)
	for _, semester := range r.semesters {
		metrics.CatalogCourses.WithLabelValues(semester).Set(float64(snap.Len(semester)))
		log.Info().Str("semester", semester).Int("courses", snap.Len(semester)).Str("source", r.source.Name()).Msg("catalog loaded")
	}
	return nil
}
