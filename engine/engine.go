// Package engine 编排一次完整的课程推荐：
// 查询向量化 -> 目录召回 -> 资格过滤 ->（评分补全）-> 特征归一化 -> 加权排序 ->（截断）-> 输出。
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/feature"
	"github.com/rushteam/courserec/filter"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
	"github.com/rushteam/courserec/pkg/retry"
	"github.com/rushteam/courserec/rank"
	"github.com/rushteam/courserec/recall"
	"github.com/rushteam/courserec/rerank"
)

// DefaultTimeout 单次推荐（向量化 + 全量检索）的超时
const DefaultTimeout = 30 * time.Second

// QueryEmbedder 把兴趣文本转为查询向量，空文本返回零向量。
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CourseLookup 按学期和课程号（任意前导零写法）查找课程，由 catalog.Repository 实现。
type CourseLookup interface {
	Get(semester, id string) (*core.Course, bool)
	HasSemester(semester string) bool
}

// Engine 是推荐编排器。构建后只读，可被多个请求并发使用。
type Engine struct {
	embedder QueryEmbedder
	pipeline *pipeline.Pipeline
	catalog  CourseLookup
	timeout  time.Duration
	retry    retry.Policy
}

// Option 引擎配置项
type Option func(*Engine)

// WithCatalog 设置课程详情查询使用的目录
func WithCatalog(c CourseLookup) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithTimeout 设置单次请求超时，<= 0 表示不设置
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithEmbedRetry 设置向量化失败（UNAVAILABLE）时的重试策略
func WithEmbedRetry(p retry.Policy) Option {
	return func(e *Engine) { e.retry = p }
}

// New 创建引擎；p 通常来自 NewPipeline 或 YAML 配置。
func New(embedder QueryEmbedder, p *pipeline.Pipeline, opts ...Option) *Engine {
	e := &Engine{
		embedder: embedder,
		pipeline: p,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewPipeline 组装默认链路：召回 -> 过滤 -> 评分补全（ratings 非空时）-> 归一化 -> 排序 -> 截断。
// extraFilters 追加在资格过滤之后（如黑名单）。
func NewPipeline(r *recall.CatalogRecall, ratings core.RatingProvider, extraFilters ...filter.Filter) *pipeline.Pipeline {
	p := &pipeline.Pipeline{Name: "courserec"}
	p.Append(
		r,
		&filter.FilterNode{Filters: append(filter.EligibilityFilters(), extraFilters...)},
	)
	if ratings != nil {
		p.Append(&feature.RatingEnrichNode{Provider: ratings})
	}
	return p.Append(
		&feature.NormalizeNode{},
		&rank.WeightedNode{},
		&rerank.TopNNode{},
	)
}

// Recommend 返回按组合分数降序的推荐列表。没有符合条件的课程时返回空切片（非 nil）与 nil error。
//
// 错误分类：
//   - INVALID_INPUT：请求不合法
//   - CONFIGURATION：学期未配置 / 索引缺失，不重试
//   - UNAVAILABLE：向量化或检索后端不可达、超时（已重试一次）
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	start := time.Now()
	ctx = withRequestID(ctx)
	log := logging.Ctx(ctx)

	recs, err := e.recommend(ctx, req)
	outcome := outcomeOf(recs, err)
	metrics.RecordRequest(outcome, start)
	if err != nil {
		log.Error().Err(err).Str("semester", req.Semester).Str("outcome", outcome).Msg("recommend failed")
		return nil, err
	}
	log.Info().
		Str("semester", req.Semester).
		Int("completed", len(req.CompletedCourseIDs)).
		Bool("has_query", strings.TrimSpace(req.Query) != "").
		Int("results", len(recs)).
		Dur("took", time.Since(start)).
		Msg("recommend done")
	return recs, nil
}

func (e *Engine) recommend(parent context.Context, req Request) ([]Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.pipeline == nil || e.embedder == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "engine is not fully configured")
	}

	ctx := parent
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, e.timeout)
		defer cancel()
	}

	vec, err := e.embed(ctx, req.Query)
	if err != nil {
		return nil, timeoutAsUnavailable(parent, err)
	}

	rctx := &core.RecommendContext{
		RequestID:   logging.RequestIDFromContext(ctx),
		Semester:    req.Semester,
		Completed:   core.NewCompletedSet(req.CompletedCourseIDs...),
		Criteria:    req.Criteria(),
		Weights:     req.Weights,
		Query:       req.Query,
		QueryVector: vec,
		Params:      map[string]any{rerank.ParamLimit: req.Limit},
	}

	items, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, timeoutAsUnavailable(parent, err)
	}

	out := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil || it.Course == nil {
			continue
		}
		out = append(out, newRecommendation(it, req.Explain))
	}
	return out, nil
}

func (e *Engine) embed(ctx context.Context, query string) ([]float64, error) {
	var vec []float64
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		v, err := e.embedder.Embed(ctx, query)
		if err != nil {
			return core.AsUnavailable(core.ModuleEmbedding, "embed query", err)
		}
		vec = v
		return nil
	}, func(err error, d time.Duration) {
		logging.Ctx(ctx).Warn().Err(err).Dur("backoff", d).Msg("query embedding failed, retrying")
	})
	return vec, err
}

// GetCourseByID 查找课程详情，课程号规则与过滤阶段一致（忽略前导零）。
// 课程不存在返回 (nil, false, nil)；学期不在目录中返回 CONFIGURATION。
func (e *Engine) GetCourseByID(ctx context.Context, id, semester string) (*core.Course, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if e.catalog == nil {
		return nil, false, core.NewDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "course catalog is not configured")
	}
	if strings.TrimSpace(id) == "" || semester == "" {
		return nil, false, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "course id and semester are required")
	}
	if !e.catalog.HasSemester(semester) {
		return nil, false, core.NewDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "semester "+semester+" is not in the catalog")
	}
	c, ok := e.catalog.Get(semester, id)
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func withRequestID(ctx context.Context) context.Context {
	if logging.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
}

// timeoutAsUnavailable 把引擎自身超时转成 UNAVAILABLE；调用方主动取消原样返回。
func timeoutAsUnavailable(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "recommendation timed out", err)
	}
	return err
}

func outcomeOf(recs []Recommendation, err error) string {
	switch {
	case err == nil && len(recs) == 0:
		return "empty"
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrInvalidInput):
		return "invalid"
	case core.IsConfiguration(err):
		return "configuration"
	case core.IsUnavailable(err):
		return "unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
