package feature

import (
	"context"
	"encoding/json"

	"github.com/rushteam/courserec/core"
)

// StaticRatingProvider 是内存评分表，课程号按规范形式匹配。
type StaticRatingProvider struct {
	ratings map[string]core.CourseRatings
}

func NewStaticRatingProvider(ratings map[string]core.CourseRatings) *StaticRatingProvider {
	p := &StaticRatingProvider{ratings: make(map[string]core.CourseRatings, len(ratings))}
	for id, r := range ratings {
		p.ratings[core.CanonicalCourseID(id)] = r
	}
	return p
}

func (p *StaticRatingProvider) Name() string { return "static" }

func (p *StaticRatingProvider) BatchGetRatings(_ context.Context, courseIDs []string) (map[string]core.CourseRatings, error) {
	out := make(map[string]core.CourseRatings)
	for _, id := range courseIDs {
		if r, ok := p.ratings[core.CanonicalCourseID(id)]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// StoreRatingProvider 是基于 core.Store 的评分提供者，采用适配器模式。
// 每门课程一个 key：{KeyPrefix}{规范课程号}，值为 JSON：
//
//	{"workload": 3.5, "general": 4.2}
type StoreRatingProvider struct {
	store     core.Store
	keyPrefix string
}

// StoredRatings 是评分在 Store 中的编码
type StoredRatings struct {
	Workload *float64 `json:"workload,omitempty"`
	General  *float64 `json:"general,omitempty"`
}

func NewStoreRatingProvider(store core.Store, keyPrefix string) *StoreRatingProvider {
	if keyPrefix == "" {
		keyPrefix = "ratings:"
	}
	return &StoreRatingProvider{store: store, keyPrefix: keyPrefix}
}

func (p *StoreRatingProvider) Name() string { return "store:" + p.store.Name() }

func (p *StoreRatingProvider) Key(courseID string) string {
	return p.keyPrefix + core.CanonicalCourseID(courseID)
}

func (p *StoreRatingProvider) BatchGetRatings(ctx context.Context, courseIDs []string) (map[string]core.CourseRatings, error) {
	if len(courseIDs) == 0 {
		return map[string]core.CourseRatings{}, nil
	}
	keys := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		keys = append(keys, p.Key(id))
	}
	data, err := p.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[string]core.CourseRatings, len(data))
	for i, id := range courseIDs {
		raw, ok := data[keys[i]]
		if !ok {
			continue
		}
		var sr StoredRatings
		if err := json.Unmarshal(raw, &sr); err != nil {
			// 单条损坏只丢弃该课程
			continue
		}
		r := core.CourseRatings{Workload: validRating(sr.Workload), General: validRating(sr.General)}
		if r.Workload == nil && r.General == nil {
			continue
		}
		out[id] = r
	}
	return out, nil
}

// Put 写入一门课程的评分
func (p *StoreRatingProvider) Put(ctx context.Context, courseID string, r core.CourseRatings) error {
	data, err := json.Marshal(StoredRatings{Workload: r.Workload, General: r.General})
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.Key(courseID), data)
}

func validRating(v *float64) *float64 {
	if v == nil || *v < 0 || *v > MaxRating {
		return nil
	}
	return v
}
