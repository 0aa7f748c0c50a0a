package core

import "context"

// VectorDatabaseService 在检索接口之上补充索引管理能力，
// 供目录导入（courserec index）和测试夹具使用。
//
//	var db VectorDatabaseService = store.NewMemoryVectorService()
//	_ = db.CreateCollection(ctx, &VectorCreateCollectionRequest{Name: "2024-2025-200", Dimension: 768})
//	_ = db.Insert(ctx, &VectorInsertRequest{Collection: "2024-2025-200", IDs: ids, Vectors: vecs, Metadata: metas})
type VectorDatabaseService interface {
	VectorService

	// Insert 插入向量（同 ID 覆盖）
	Insert(ctx context.Context, req *VectorInsertRequest) error

	// Delete 删除向量
	Delete(ctx context.Context, req *VectorDeleteRequest) error

	CreateCollection(ctx context.Context, req *VectorCreateCollectionRequest) error
	DropCollection(ctx context.Context, collection string) error
	HasCollection(ctx context.Context, collection string) (bool, error)
}

// VectorInsertRequest 向量插入请求；IDs、Vectors、Metadata 按下标对应。
type VectorInsertRequest struct {
	Collection string
	Vectors    [][]float64
	IDs        []string
	Metadata   []map[string]any
}

// VectorDeleteRequest 向量删除请求
type VectorDeleteRequest struct {
	Collection string
	IDs        []string
}

// VectorCreateCollectionRequest 创建集合请求
type VectorCreateCollectionRequest struct {
	Name      string
	Dimension int
	Metric    string
}
