package store

import (
	"context"
	"maps"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/courserec/core"
)

// MemoryVectorService 是内存实现的课程向量索引，用于测试/开发/CLI 演示。
// 每个 collection 对应一个学期；支持余弦相似度、欧氏距离、内积，线程安全。
type MemoryVectorService struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	dimension int
	metric    string
	vectors   map[string][]float64
	metadata  map[string]map[string]any
}

func NewMemoryVectorService() *MemoryVectorService {
	return &MemoryVectorService{collections: make(map[string]*collection)}
}

func (m *MemoryVectorService) Name() string { return "memory_vector" }

// Search 实现 core.VectorService。
// 集合不存在返回 CONFIGURATION 错误（索引缺失）；零向量查询返回全部记录，分数为 0。
func (m *MemoryVectorService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector search request is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeConfiguration, "collection not found: "+req.Collection)
	}
	if len(req.Vector) != col.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector dimension mismatch")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	metric := req.Metric
	if metric == "" {
		metric = col.metric
	}
	zero := core.IsZeroVector(req.Vector)

	items := make([]core.VectorSearchItem, 0, len(col.vectors))
	for id, vec := range col.vectors {
		if req.Filter != nil && !matchFilter(req.Filter, col.metadata[id]) {
			continue
		}
		var score, distance float64
		if !zero {
			score, distance = similarity(core.MetricType(metric), req.Vector, vec)
		}
		item := core.VectorSearchItem{ID: id, Score: score, Distance: distance}
		if req.IncludeMetadata {
			item.Metadata = maps.Clone(col.metadata[id])
		}
		items = append(items, item)
	}

	// 分数降序，同分按 ID 升序，保证结果可复现
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > topK {
		items = items[:topK]
	}
	return &core.VectorSearchResult{Items: items}, nil
}

func (m *MemoryVectorService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	return nil
}

// Insert 同 ID 覆盖
func (m *MemoryVectorService) Insert(ctx context.Context, req *core.VectorInsertRequest) error {
	if req == nil {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "insert request is nil")
	}
	if len(req.Vectors) != len(req.IDs) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vectors and ids length mismatch")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound, "collection not found: "+req.Collection)
	}
	for _, vec := range req.Vectors {
		if len(vec) != col.dimension {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector dimension mismatch")
		}
	}
	for i, vec := range req.Vectors {
		id := req.IDs[i]
		col.vectors[id] = append([]float64(nil), vec...)
		if i < len(req.Metadata) && req.Metadata[i] != nil {
			col.metadata[id] = maps.Clone(req.Metadata[i])
		} else {
			delete(col.metadata, id)
		}
	}
	return nil
}

func (m *MemoryVectorService) Delete(ctx context.Context, req *core.VectorDeleteRequest) error {
	if req == nil {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "delete request is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound, "collection not found: "+req.Collection)
	}
	for _, id := range req.IDs {
		delete(col.vectors, id)
		delete(col.metadata, id)
	}
	return nil
}

func (m *MemoryVectorService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req == nil || req.Name == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if req.Dimension <= 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "dimension must be greater than 0")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[req.Name]; exists {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection already exists: "+req.Name)
	}
	metric := req.Metric
	if !core.ValidateVectorMetric(metric) {
		metric = string(core.MetricCosine)
	}
	m.collections[req.Name] = &collection{
		dimension: req.Dimension,
		metric:    metric,
		vectors:   make(map[string][]float64),
		metadata:  make(map[string]map[string]any),
	}
	return nil
}

func (m *MemoryVectorService) DropCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections, name)
	return nil
}

func (m *MemoryVectorService) HasCollection(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.collections[name]
	return exists, nil
}

// matchFilter 元数据逐字段相等匹配
func matchFilter(filter map[string]any, metadata map[string]any) bool {
	if metadata == nil {
		return false
	}
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// similarity 返回 (score, distance)，score 越大越相似。
func similarity(metric core.MetricType, a, b []float64) (float64, float64) {
	switch metric {
	case core.MetricEuclidean:
		d := euclideanDistance(a, b)
		return 1.0 / (1.0 + d), d
	case core.MetricInnerProduct:
		ip := innerProduct(a, b)
		return ip, -ip
	default:
		cos := cosineSimilarity(a, b)
		return cos, 1.0 - cos
	}
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func innerProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

var (
	_ core.VectorService         = (*MemoryVectorService)(nil)
	_ core.VectorDatabaseService = (*MemoryVectorService)(nil)
)
