package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
)

// QueryEmbedder 是查询文本到向量的入口：
//   - 空白文本直接返回目录维度的零向量，不调用后端
//   - 后端失败上抛（未分类错误归为 UNAVAILABLE），绝不用零向量静默替代
//   - 返回向量维度与目录不一致时报 CONFIGURATION
type QueryEmbedder struct {
	backend   core.Embedder
	dimension int
}

// NewQueryEmbedder dimension 为 0 时取 backend.Dimension()。
func NewQueryEmbedder(backend core.Embedder, dimension int) *QueryEmbedder {
	if dimension <= 0 && backend != nil {
		dimension = backend.Dimension()
	}
	return &QueryEmbedder{backend: backend, dimension: dimension}
}

func (q *QueryEmbedder) Dimension() int { return q.dimension }

func (q *QueryEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float64, q.dimension), nil
	}
	if q.backend == nil {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeConfiguration, "no embedding backend configured")
	}

	start := time.Now()
	vec, err := q.backend.Embed(ctx, text)
	metrics.EmbeddingDuration.WithLabelValues(q.backend.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("embedder", q.backend.Name()).Msg("query embedding failed")
		return nil, core.AsUnavailable(core.ModuleEmbedding, "embed query", err)
	}
	if q.dimension > 0 && len(vec) != q.dimension {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeConfiguration,
			fmt.Sprintf("embedding dimension %d does not match catalog dimension %d", len(vec), q.dimension))
	}
	return vec, nil
}
