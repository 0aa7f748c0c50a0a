// Package conv 提供课程元数据、YAML/JSON 配置中常见的弱类型转换工具。
// 索引元数据经过 JSON / protobuf 往返后数字可能变成 string、json.Number 或各种整数类型，
// 这里统一收敛成 float64 / string / []string。
package conv

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ToFloat64 将 any 转为 float64。
// 支持各类整数/浮点、json.Number 以及可解析的数字字符串；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToInt 将 any 转为 int，浮点数向零截断。
func ToInt(v any) (int, bool) {
	f, ok := ToFloat64(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ToString 将 any 转为 string。
// 整数值的浮点数按整数格式输出（课程号常被序列化成 1.04031e+06 之类的浮点）。
func ToString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	default:
		return "", false
	}
}

// TypeAssert 对 v 做类型断言为 T，等价于 v.(T) 的 (val, ok) 形式。
func TypeAssert[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// ConvertMap 将 map[K]V1 按 convert 转为 map[K]V2，convert 返回 false 的条目被跳过。
func ConvertMap[K comparable, V1, V2 any](m map[K]V1, convert func(V1) (V2, bool)) map[K]V2 {
	if m == nil {
		return nil
	}
	out := make(map[K]V2, len(m))
	for k, v := range m {
		if v2, ok := convert(v); ok {
			out[k] = v2
		}
	}
	return out
}

// MapToFloat64 将 map[string]any 转为 map[string]float64，仅保留可转为 float64 的 value。
func MapToFloat64(m map[string]any) map[string]float64 {
	return ConvertMap(m, ToFloat64)
}

// ConvertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// ToStringSlice 接受 []string 或 []any，元素按 ToString 转换。
func ToStringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		if len(val) == 0 {
			return []string{}, true
		}
		out := ConvertSlice(val, ToString)
		return out, len(out) == len(val)
	default:
		return nil, false
	}
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt 兼容 YAML 解析出的 int / float64。
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	if v, ok := ToInt(m[key]); ok {
		return v
	}
	return defaultVal
}

// ConfigGetFloat64 兼容 YAML 解析出的 int / float64。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	if v, ok := ToFloat64(m[key]); ok {
		return v
	}
	return defaultVal
}

// ConfigGetDuration 读取 "500ms" 形式的字符串或毫秒整数。
func ConfigGetDuration(m map[string]any, key string, defaultVal time.Duration) time.Duration {
	switch v := m[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int, int64, float64:
		ms, _ := ToFloat64(v)
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
