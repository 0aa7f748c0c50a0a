// Package feast 通过 Feast 在线特征服务获取课程评分。
package feast

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Client 是 Feast 在线特征读取的抽象，GrpcClient 为官方 SDK 实现。
type Client interface {
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)
	Close() error
}

// GetOnlineFeaturesRequest 在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征引用，形如 "course_ratings:workload"
	Features []string

	// EntityRows 实体行，例如 {"course_id": "104031"}
	EntityRows []map[string]any

	Project string
}

// GetOnlineFeaturesResponse 与 EntityRows 一一对应
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值；缺失的特征不出现在 Values 中
type FeatureVector struct {
	Values    map[string]any
	EntityRow map[string]any
}

type ClientOption func(*ClientConfig)

type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// Token 非空时使用静态 Token 认证
	Token string
	TLS   bool
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

func WithToken(token string, tls bool) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
		c.TLS = tls
	}
}

// ParseEndpoint 解析 "host:port"（可带 grpc:// 前缀），缺省端口 6565。
func ParseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")
	host, portStr, ok := strings.Cut(endpoint, ":")
	if ok {
		if port, err := strconv.Atoi(portStr); err == nil {
			return host, port
		}
	}
	return host, 6565
}
