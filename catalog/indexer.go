package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/recall"
)

// Indexer 把一个学期的课程写入向量索引：每门课程一条记录，
// 向量为标题 + 描述的 embedding，元数据为 recall.CourseMetadata。
type Indexer struct {
	Index    core.VectorDatabaseService
	Embedder core.Embedder
	Metric   string
}

// IndexSemester 确保 collection 存在后 upsert 全部课程。
func (x *Indexer) IndexSemester(ctx context.Context, collection string, courses []*core.Course) error {
	exists, err := x.Index.HasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := x.Index.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
			Name:      collection,
			Dimension: x.Embedder.Dimension(),
			Metric:    x.Metric,
		}); err != nil {
			return err
		}
	}
	if len(courses) == 0 {
		return nil
	}

	req := &core.VectorInsertRequest{
		Collection: collection,
		IDs:        make([]string, 0, len(courses)),
		Vectors:    make([][]float64, 0, len(courses)),
		Metadata:   make([]map[string]any, 0, len(courses)),
	}
	for _, c := range courses {
		vec, err := x.Embedder.Embed(ctx, DocumentText(c))
		if err != nil {
			return fmt.Errorf("embed course %s: %w", c.ID, err)
		}
		req.IDs = append(req.IDs, core.CanonicalCourseID(c.ID))
		req.Vectors = append(req.Vectors, vec)
		req.Metadata = append(req.Metadata, recall.CourseMetadata(c))
	}
	return x.Index.Insert(ctx, req)
}

// DocumentText 是课程参与向量化的文本
func DocumentText(c *core.Course) string {
	return strings.TrimSpace(c.Title + "\n" + c.Description)
}
