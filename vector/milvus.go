package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/rushteam/courserec/core"
)

// 课程 collection 的字段约定：id 为主键（课程号），metadata 为 JSON 课程元数据。
const (
	FieldID       = "id"
	FieldVector   = "vector"
	FieldMetadata = "metadata"
)

// MilvusService 是 Milvus 上的课程向量索引，每个学期一个 collection。
type MilvusService struct {
	Address  string
	Username string
	Password string
	Database string
	Timeout  time.Duration

	client *milvusclient.Client
}

type MilvusOption func(*MilvusService)

func WithMilvusAuth(username, password string) MilvusOption {
	return func(s *MilvusService) {
		s.Username = username
		s.Password = password
	}
}

func WithMilvusDatabase(database string) MilvusOption {
	return func(s *MilvusService) {
		s.Database = database
	}
}

func WithMilvusTimeout(timeout time.Duration) MilvusOption {
	return func(s *MilvusService) {
		s.Timeout = timeout
	}
}

// NewMilvusService 建立连接；连接失败返回 UNAVAILABLE。
func NewMilvusService(ctx context.Context, address string, opts ...MilvusOption) (*MilvusService, error) {
	s := &MilvusService{
		Address:  address,
		Database: "default",
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	client, err := milvusclient.New(dialCtx, &milvusclient.ClientConfig{
		Address:  s.Address,
		Username: s.Username,
		Password: s.Password,
		DBName:   s.Database,
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "create milvus client", err)
	}
	s.client = client
	return s, nil
}

// Search 实现 core.VectorService。
// 零向量没有余弦方向，改为标量查询返回 TopK 以内的全部课程，分数为 0。
func (s *MilvusService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil || req.Collection == "" {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	outputFields := []string{FieldID}
	if req.IncludeMetadata {
		outputFields = append(outputFields, FieldMetadata)
	}
	filterExpr, params := buildFilterExpr(req.Filter)

	if core.IsZeroVector(req.Vector) {
		return s.scan(ctx, req.Collection, topK, outputFields, filterExpr, params)
	}

	opt := milvusclient.NewSearchOption(req.Collection, topK,
		[]entity.Vector{entity.FloatVector(convertToFloat32(req.Vector))}).
		WithOutputFields(outputFields...)
	if filterExpr != "" {
		opt = opt.WithFilter(filterExpr)
		for k, v := range params {
			opt = opt.WithTemplateParam(k, v)
		}
	}

	results, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, classifyMilvusErr("search", err)
	}

	items := make([]core.VectorSearchItem, 0, topK)
	for _, rs := range results {
		if rs.Err != nil {
			return nil, classifyMilvusErr("search", rs.Err)
		}
		converted, err := convertResultSet(rs, req.IncludeMetadata, true)
		if err != nil {
			return nil, err
		}
		items = append(items, converted...)
	}
	return &core.VectorSearchResult{Items: items}, nil
}

func (s *MilvusService) scan(ctx context.Context, collection string, topK int, fields []string, filterExpr string, params map[string]any) (*core.VectorSearchResult, error) {
	if filterExpr == "" {
		filterExpr = FieldID + ` != ""`
	}
	opt := milvusclient.NewQueryOption(collection).
		WithFilter(filterExpr).
		WithOutputFields(fields...).
		WithLimit(topK)
	for k, v := range params {
		opt = opt.WithTemplateParam(k, v)
	}

	rs, err := s.client.Query(ctx, opt)
	if err != nil {
		return nil, classifyMilvusErr("query", err)
	}
	items, err := convertResultSet(rs, len(fields) > 1, false)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return &core.VectorSearchResult{Items: items}, nil
}

// convertResultSet 把 Milvus 结果集转换成领域结果；withScores 为 false 时分数统一为 0。
func convertResultSet(rs milvusclient.ResultSet, withMetadata, withScores bool) ([]core.VectorSearchItem, error) {
	ids := rs.IDs
	if ids == nil {
		ids = rs.GetColumn(FieldID)
	}
	if ids == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeMalformed, "milvus result has no id column")
	}
	var metaCol column.Column
	if withMetadata {
		metaCol = rs.GetColumn(FieldMetadata)
	}

	n := ids.Len()
	items := make([]core.VectorSearchItem, 0, n)
	for i := 0; i < n; i++ {
		raw, err := ids.Get(i)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeMalformed, "read id column", err)
		}
		item := core.VectorSearchItem{ID: fmt.Sprint(raw)}
		if withScores && i < len(rs.Scores) {
			item.Score = float64(rs.Scores[i])
			item.Distance = 1 - item.Score
		}
		if metaCol != nil {
			if v, err := metaCol.Get(i); err == nil {
				// 单条元数据解析失败不影响整批，交给召回层按 MALFORMED 跳过
				item.Metadata, _ = decodeMetadata(v)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeMetadata(v any) (map[string]any, error) {
	var data []byte
	switch val := v.(type) {
	case []byte:
		data = val
	case string:
		data = []byte(val)
	case map[string]any:
		return val, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported metadata type %T", v)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// buildFilterExpr 把等值过滤条件转换成模板表达式（key 有序，表达式稳定）。
func buildFilterExpr(filter map[string]any) (string, map[string]any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]string, 0, len(keys))
	params := make(map[string]any, len(keys))
	for _, k := range keys {
		param := "f_" + k
		field := k
		if k != FieldID {
			field = fmt.Sprintf(`%s["%s"]`, FieldMetadata, k)
		}
		exprs = append(exprs, fmt.Sprintf("%s == {%s}", field, param))
		params[param] = filter[k]
	}
	return strings.Join(exprs, " && "), params
}

// Insert 以 upsert 语义写入课程向量与元数据。
func (s *MilvusService) Insert(ctx context.Context, req *core.VectorInsertRequest) error {
	if req == nil || req.Collection == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if len(req.Vectors) == 0 || len(req.Vectors) != len(req.IDs) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vectors and ids length mismatch")
	}

	vectors := make([][]float32, len(req.Vectors))
	for i, v := range req.Vectors {
		vectors[i] = convertToFloat32(v)
	}
	metas := make([][]byte, len(req.IDs))
	for i := range req.IDs {
		var m map[string]any
		if i < len(req.Metadata) {
			m = req.Metadata[i]
		}
		if m == nil {
			m = map[string]any{}
		}
		b, err := json.Marshal(m)
		if err != nil {
			return core.WrapDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "encode metadata for "+req.IDs[i], err)
		}
		metas[i] = b
	}

	opt := milvusclient.NewColumnBasedInsertOption(req.Collection,
		column.NewColumnVarChar(FieldID, req.IDs),
		column.NewColumnFloatVector(FieldVector, len(vectors[0]), vectors),
		column.NewColumnJSONBytes(FieldMetadata, metas),
	)
	if _, err := s.client.Upsert(ctx, opt); err != nil {
		return classifyMilvusErr("upsert", err)
	}
	return nil
}

func (s *MilvusService) Delete(ctx context.Context, req *core.VectorDeleteRequest) error {
	if req == nil || req.Collection == "" || len(req.IDs) == 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection and ids are required")
	}
	opt := milvusclient.NewDeleteOption(req.Collection).WithStringIDs(FieldID, req.IDs)
	if _, err := s.client.Delete(ctx, opt); err != nil {
		return classifyMilvusErr("delete", err)
	}
	return nil
}

func (s *MilvusService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req == nil || req.Name == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if req.Dimension <= 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "dimension must be greater than 0")
	}

	schema := entity.NewSchema().
		WithName(req.Name).
		WithField(entity.NewField().
			WithName(FieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(FieldVector).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(req.Dimension))).
		WithField(entity.NewField().
			WithName(FieldMetadata).
			WithDataType(entity.FieldTypeJSON))

	indexOpt := milvusclient.NewCreateIndexOption(req.Name, FieldVector, index.NewAutoIndex(convertMetricType(req.Metric)))
	opt := milvusclient.NewCreateCollectionOption(req.Name, schema).WithIndexOptions(indexOpt)
	if err := s.client.CreateCollection(ctx, opt); err != nil {
		return classifyMilvusErr("create collection", err)
	}
	return nil
}

func (s *MilvusService) DropCollection(ctx context.Context, collection string) error {
	if err := s.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(collection)); err != nil {
		return classifyMilvusErr("drop collection", err)
	}
	return nil
}

func (s *MilvusService) HasCollection(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(collection))
	if err != nil {
		return false, classifyMilvusErr("has collection", err)
	}
	return exists, nil
}

func (s *MilvusService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close(context.Background())
}

// classifyMilvusErr：集合缺失属于配置错误，其余视为后端不可用（可重试）。
func classifyMilvusErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "collection not found") || strings.Contains(msg, "can't find collection") {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeConfiguration, "milvus "+op, err)
	}
	return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus "+op, err)
}

func convertMetricType(metric string) entity.MetricType {
	switch core.MetricType(metric) {
	case core.MetricEuclidean:
		return entity.L2
	case core.MetricInnerProduct:
		return entity.IP
	default:
		return entity.COSINE
	}
}

func convertToFloat32(vec []float64) []float32 {
	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(v)
	}
	return result
}

var (
	_ core.VectorService         = (*MilvusService)(nil)
	_ core.VectorDatabaseService = (*MilvusService)(nil)
)
