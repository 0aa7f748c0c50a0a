package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/filter"
	"github.com/rushteam/courserec/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/courserec/config/builders"
// 以触发内置 Node（recall.catalog、filter.eligibility、rank.weighted 等）的 init 注册。

// Deps 是构建 Node 时需要注入的运行时依赖（索引、评分源、黑名单存储）。
type Deps struct {
	Index       core.VectorService
	Collections map[string]string
	Ratings     core.RatingProvider
	Blacklist   *filter.StoreAdapter

	// 召回默认值，可被节点配置覆盖
	CatalogLimit int
	Metric       string
	RetryBackoff time.Duration
	MaxRetries   int
}

// NodeBuilder 根据依赖与节点配置构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder func(deps *Deps, cfg map[string]any) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 Factory 与配置驱动使用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Factory 返回绑定了 deps 的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func Factory(deps *Deps) *pipeline.NodeFactory {
	if deps == nil {
		deps = &Deps{}
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, func(cfg map[string]any) (pipeline.Node, error) {
			return builder(deps, cfg)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if _, ok := defaultBuilders[nc.Type]; !ok {
			supported := make([]string, 0, len(defaultBuilders))
			for t := range defaultBuilders {
				supported = append(supported, t)
			}
			sort.Strings(supported)
			return core.NewDomainError(core.ModuleEngine, core.ErrorCodeConfiguration,
				fmt.Sprintf("unsupported node type %q (supported: %v)", nc.Type, supported))
		}
	}
	return nil
}

// BuildPipeline 校验并构建配置驱动的 Pipeline。
func BuildPipeline(cfg *pipeline.Config, deps *Deps) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(Factory(deps))
}
