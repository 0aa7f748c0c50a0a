// Package courserec 是一个课程推荐引擎。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑由 Node 串联（Recall → Filter → Feature → Rank → ReRank）
// - Labels-first: 召回来源、过滤原因、评分来源等以 label 透传，explain 时输出
// - 请求内不可变: 目录快照只读，节点返回新切片，结果对同一输入确定
package courserec

import (
	"github.com/rushteam/courserec/engine"
	"github.com/rushteam/courserec/pipeline"
)

// 轻量 facade：便于直接 import "courserec" 使用核心抽象。
type (
	Engine         = engine.Engine
	Request        = engine.Request
	Recommendation = engine.Recommendation
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
