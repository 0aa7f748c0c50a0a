package filter

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rushteam/courserec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单，值为课程号 JSON 数组。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, core.WrapDomainError(core.ModuleFilter, core.ErrorCodeMalformed, "decode blacklist "+key, err)
	}
	return ids, nil
}

// SetBlacklist 写入黑名单，供运维脚本与测试使用。
func (a *StoreAdapter) SetBlacklist(ctx context.Context, key string, courseIDs []string) error {
	data, err := json.Marshal(courseIDs)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

// SemesterKey 替换 key 中的 {semester} 占位。
func SemesterKey(key, semester string) string {
	return strings.ReplaceAll(key, "{semester}", semester)
}
