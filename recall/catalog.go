package recall

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
	"github.com/rushteam/courserec/pkg/retry"
	"github.com/rushteam/courserec/pkg/utils"
)

// DefaultCatalogLimit 一次检索的上限，需不小于单学期目录规模
const DefaultCatalogLimit = 10000

// CatalogRecall 是目录召回节点：按学期找到索引，用查询向量做一次全量相似度检索。
//
//	r := &recall.CatalogRecall{
//		Index:       milvusService,
//		Collections: map[string]string{"2024-2025-200": "courses_2024_2025_200"},
//	}
//
// 学期未配置返回 CONFIGURATION（不重试）；后端 UNAVAILABLE 时按 RetryBackoff 等待后重试，
// 最多 MaxRetries 次，重试使用同一个查询向量。
type CatalogRecall struct {
	Index core.VectorService

	// Collections 学期 -> 索引 collection
	Collections map[string]string

	Limit  int
	Metric string

	// RetryBackoff 默认 500ms；MaxRetries 默认 1，小于 0 表示不重试
	RetryBackoff time.Duration
	MaxRetries   int
}

func (r *CatalogRecall) Name() string        { return "recall.catalog" }
func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 忽略输入 items，返回召回结果（按相似度降序，每门课程一条）。
func (r *CatalogRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if r.Index == nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeConfiguration, "catalog index is not configured")
	}
	collection, err := r.ResolveCollection(rctx.Semester)
	if err != nil {
		return nil, err
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	req := &core.VectorSearchRequest{
		Collection:      collection,
		Vector:          rctx.QueryVector,
		TopK:            limit,
		Metric:          r.Metric,
		IncludeMetadata: true,
	}

	result, err := r.search(ctx, req)
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	out := make([]*core.Item, 0, len(result.Items))
	seen := make(map[string]struct{}, len(result.Items))
	for _, hit := range result.Items {
		course, err := ParseCourse(hit.ID, hit.Metadata)
		if err != nil {
			metrics.MalformedRecords.WithLabelValues(r.Name()).Inc()
			log.Warn().Err(err).Str("record_id", hit.ID).Str("semester", rctx.Semester).Msg("skip malformed catalog record")
			continue
		}
		key := core.CanonicalCourseID(course.ID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		it := core.NewItem(course)
		it.SemanticScore = ClampScore(hit.Score)
		it.PutLabel("recall_source", utils.Label{Value: "catalog", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// ResolveCollection 学期到索引的映射；未配置的学期是致命的配置错误。
func (r *CatalogRecall) ResolveCollection(semester string) (string, error) {
	collection, ok := r.Collections[semester]
	if !ok || collection == "" {
		return "", core.NewDomainError(core.ModuleRecall, core.ErrorCodeConfiguration,
			fmt.Sprintf("no catalog index configured for semester %q", semester))
	}
	return collection, nil
}

func (r *CatalogRecall) search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	var result *core.VectorSearchResult
	policy := retry.Policy{Backoff: r.RetryBackoff, MaxRetries: r.MaxRetries}
	err := policy.Do(ctx, func(ctx context.Context) error {
		res, err := r.Index.Search(ctx, req)
		if err != nil {
			return core.AsUnavailable(core.ModuleRecall, "catalog search", err)
		}
		result = res
		return nil
	}, func(err error, d time.Duration) {
		metrics.RetrievalRetries.Inc()
		logging.Ctx(ctx).Warn().Err(err).Dur("backoff", d).Str("collection", req.Collection).Msg("catalog search failed, retrying")
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &core.VectorSearchResult{}
	}
	return result, nil
}

// ClampScore 把相似度夹到 [0,1]；NaN 视为 0。
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
