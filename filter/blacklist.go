package filter

import (
	"context"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
)

// BlacklistFilter 过滤被下架或停开的课程。
// 课程号按规范形式比较，"0234114" 与 "234114" 视为同一门课程。
type BlacklistFilter struct {
	// CourseIDs 是内存中的黑名单课程号
	CourseIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选），支持 {semester} 占位
	Key string

	// ids 是 Prepare 后的规范课程号集合
	ids map[string]struct{}
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单课程号列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(courseIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		CourseIDs: courseIDs,
		Store:     store,
		Key:       key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Prepare 每次请求只读取一次 Store，合并内存列表后返回不再访问 Store 的过滤器。
// 读取失败时只使用内存列表，黑名单不是硬约束。
func (f *BlacklistFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	ids := make(map[string]struct{}, len(f.CourseIDs))
	for _, bid := range f.CourseIDs {
		ids[core.CanonicalCourseID(bid)] = struct{}{}
	}
	if f.Store != nil && f.Key != "" {
		key := SemesterKey(f.Key, rctx.Semester)
		blacklist, err := f.Store.GetBlacklist(ctx, key)
		switch {
		case err == nil:
			for _, bid := range blacklist {
				ids[core.CanonicalCourseID(bid)] = struct{}{}
			}
		case !core.IsStoreNotFound(err):
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("read blacklist failed")
		}
	}
	return &BlacklistFilter{ids: ids}, nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.ids == nil {
		prepared, err := f.Prepare(ctx, rctx)
		if err != nil {
			return false, err
		}
		return prepared.ShouldFilter(ctx, rctx, item)
	}
	_, hit := f.ids[core.CanonicalCourseID(item.ID)]
	return hit, nil
}
