package core

import "context"

// VectorService 是课程向量检索的领域接口。
//
// 定义在领域层（core），由基础设施层实现：
//   - store.MemoryVectorService（内存、测试）
//   - vector.MilvusService（Milvus，每个学期一个 collection）
//
// 约定：
//   - 查询向量为零向量时，实现应返回集合内全部课程（TopK 以内），分数统一为 0
//   - IncludeMetadata 为 true 时，每个结果都携带课程元数据
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称（学期对应的索引）
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int

	// Metric 距离度量方式：cosine / euclidean / inner_product
	Metric string

	// IncludeMetadata 是否返回元数据
	IncludeMetadata bool

	// Filter 标量过滤条件（可选）
	Filter map[string]any
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	ID       string
	Score    float64
	Distance float64

	// Metadata 课程元数据（字段约定见 recall.ParseCourse）
	Metadata map[string]any
}

// VectorSearchResult 向量搜索结果（按相似度降序）
type VectorSearchResult struct {
	Items []VectorSearchItem
}

// IsZeroVector 判断向量是否全为 0（含空向量）。
func IsZeroVector(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric string) bool {
	switch MetricType(metric) {
	case MetricCosine, MetricEuclidean, MetricInnerProduct:
		return true
	default:
		return false
	}
}

type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)
