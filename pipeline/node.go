package pipeline

import (
	"context"

	"github.com/rushteam/courserec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回：从学期目录索引取候选课程
	KindFilter      Kind = "filter"      // 过滤：先修、考试、学分、已修等硬约束
	KindRank        Kind = "rank"        // 排序：加权组合打分
	KindReRank      Kind = "rerank"      // 重排：截断等结果调整
	KindPostProcess Kind = "postprocess" // 后处理：评分补全、特征归一化
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，方便 Recall 生成、Filter 截断、Rank 重排等操作。
// 节点不得修改输入切片的顺序；需要重排时返回新切片。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
