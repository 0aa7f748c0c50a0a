package core

import "context"

// Embedder 把自由文本转换为固定维度的向量。
//
// 实现：
//   - service.GeminiEmbedder（genai SDK）
//   - service.HashEmbedder（确定性、离线，用于测试与本地调试）
type Embedder interface {
	Name() string

	// Dimension 返回输出向量维度
	Dimension() int

	// Embed 返回文本向量；后端不可达或超时时返回 UNAVAILABLE 类错误
	Embed(ctx context.Context, text string) ([]float64, error)
}

// RatingProvider 按课程批量提供 0-5 评分（负载、总体），用于补全目录中缺失的评分。
//
// 实现：
//   - feast.RatingProvider（Feast 在线特征）
//   - feature.StaticRatingProvider（内存表）
type RatingProvider interface {
	Name() string

	// BatchGetRatings 返回 courseID -> 评分；没有评分的课程不出现在结果中
	BatchGetRatings(ctx context.Context, courseIDs []string) (map[string]CourseRatings, error)
}

// CourseRatings 单门课程的评分，nil 表示缺失
type CourseRatings struct {
	Workload *float64
	General  *float64
}
