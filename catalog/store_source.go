package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
)

// StoreSource 从 core.Store（内存 / Redis）读取目录。
//
//	catalog:{semester}:ids   课程号 JSON 数组
//	catalog:{semester}:{id}  课程 JSON（core.Course），id 为规范课程号
type StoreSource struct {
	Store  core.Store
	Prefix string // 默认 "catalog"
}

func NewStoreSource(store core.Store) *StoreSource {
	return &StoreSource{Store: store}
}

func (s *StoreSource) Name() string { return "store:" + s.Store.Name() }

func (s *StoreSource) prefix() string {
	if s.Prefix == "" {
		return "catalog"
	}
	return s.Prefix
}

// IDsKey 学期课程号索引 key
func (s *StoreSource) IDsKey(semester string) string {
	return fmt.Sprintf("%s:%s:ids", s.prefix(), semester)
}

// CourseKey 单门课程 key
func (s *StoreSource) CourseKey(semester, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix(), semester, core.CanonicalCourseID(id))
}

func (s *StoreSource) LoadSemester(ctx context.Context, semester string) ([]*core.Course, error) {
	raw, err := s.Store.Get(ctx, s.IDsKey(semester))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "semester "+semester, err)
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeMalformed, "decode course ids of "+semester, err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.CourseKey(semester, id))
	}
	values, err := s.Store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	out := make([]*core.Course, 0, len(keys))
	for _, key := range keys {
		data, ok := values[key]
		if !ok {
			log.Warn().Str("key", key).Msg("catalog course missing from store")
			continue
		}
		var c core.Course
		if err := json.Unmarshal(data, &c); err != nil || c.ID == "" {
			metrics.MalformedRecords.WithLabelValues(s.Name()).Inc()
			log.Warn().Err(err).Str("key", key).Msg("skip malformed catalog course")
			continue
		}
		out = append(out, &c)
	}
	return out, nil
}

// SaveSemester 写入一个学期的全部课程并覆盖课程号索引。
func (s *StoreSource) SaveSemester(ctx context.Context, semester string, courses []*core.Course) error {
	kvs := make(map[string][]byte, len(courses)+1)
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode course %s: %w", c.ID, err)
		}
		kvs[s.CourseKey(semester, c.ID)] = data
		ids = append(ids, core.CanonicalCourseID(c.ID))
	}
	idx, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	kvs[s.IDsKey(semester)] = idx
	return s.Store.BatchSet(ctx, kvs)
}
