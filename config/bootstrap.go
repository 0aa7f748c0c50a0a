package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/rushteam/courserec/catalog"
	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/engine"
	"github.com/rushteam/courserec/feast"
	"github.com/rushteam/courserec/feature"
	"github.com/rushteam/courserec/filter"
	"github.com/rushteam/courserec/pipeline"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/retry"
	"github.com/rushteam/courserec/recall"
	"github.com/rushteam/courserec/service"
	"github.com/rushteam/courserec/store"
	"github.com/rushteam/courserec/vector"
)

// App 是按 Settings 组装好的运行时。Close 释放所有后端连接。
type App struct {
	Engine  *engine.Engine
	Catalog *catalog.Repository
	Index   core.VectorDatabaseService

	embedder    core.Embedder
	metric      string
	collections map[string]string
	closers []func() error
}

// Close 逆序关闭后端
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bootstrap 根据 Settings 组装目录、向量索引、Embedding、评分源与 Pipeline。
// 配置驱动的 Pipeline 需要调用方 import config/builders。
func Bootstrap(ctx context.Context, s *Settings) (*App, error) {
	return BootstrapWith(ctx, s, nil)
}

// Overrides 允许调用方替换部分后端（测试、演示模式）。
type Overrides struct {
	Store    core.Store
	Source   catalog.Source
	Index    core.VectorDatabaseService
	Embedder core.Embedder
	Ratings  core.RatingProvider
}

func BootstrapWith(ctx context.Context, s *Settings, ov *Overrides) (app *App, err error) {
	if s == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "settings is nil")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if ov == nil {
		ov = &Overrides{}
	}
	logging.Init(s.Log)

	app = &App{metric: s.Index.Metric, collections: s.Semesters}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	kv, err := app.store(ctx, s, ov)
	if err != nil {
		return nil, err
	}
	source, err := app.source(s, ov, kv)
	if err != nil {
		return nil, err
	}

	semesters := make([]string, 0, len(s.Semesters))
	for sem := range s.Semesters {
		semesters = append(semesters, sem)
	}
	app.Catalog = catalog.NewRepository(source, semesters...)
	if err := app.Catalog.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	embedder := ov.Embedder
	if embedder == nil {
		embedder, err = newEmbedder(ctx, s.Embedding)
		if err != nil {
			return nil, err
		}
	}
	app.embedder = embedder

	index, err := app.index(ctx, s, ov)
	if err != nil {
		return nil, err
	}
	app.Index = index

	ratings, err := app.ratings(s, ov, kv)
	if err != nil {
		return nil, err
	}

	var blacklist *filter.StoreAdapter
	if kv != nil {
		blacklist = filter.NewStoreAdapter(kv)
	}
	deps := &Deps{
		Index:        index,
		Collections:  s.Semesters,
		Ratings:      ratings,
		Blacklist:    blacklist,
		CatalogLimit: s.Engine.CatalogLimit,
		Metric:       s.Index.Metric,
		RetryBackoff: s.Engine.RetryBackoff,
		MaxRetries:   s.Engine.MaxRetries,
	}
	p, err := buildPipeline(s, deps)
	if err != nil {
		return nil, err
	}

	app.Engine = engine.New(
		service.NewQueryEmbedder(embedder, embedder.Dimension()),
		p,
		engine.WithCatalog(app.Catalog),
		engine.WithTimeout(s.Engine.Timeout),
		engine.WithEmbedRetry(retry.Policy{Backoff: s.Engine.RetryBackoff, MaxRetries: s.Engine.MaxRetries}),
	)
	logging.Ctx(ctx).Info().
		Str("catalog", source.Name()).
		Str("index", s.Index.Backend).
		Str("embedding", embedder.Name()).
		Str("pipeline", p.Name).
		Int("semesters", len(semesters)).
		Msg("courserec bootstrapped")
	return app, nil
}

// store 只在目录或评分来自 Redis 时建立连接
func (a *App) store(ctx context.Context, s *Settings, ov *Overrides) (core.Store, error) {
	if ov.Store != nil {
		return ov.Store, nil
	}
	if s.Catalog.Source != "redis" && s.Ratings.Source != "redis" {
		return nil, nil
	}
	rs, err := store.NewRedisStore(ctx, s.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

func (a *App) source(s *Settings, ov *Overrides, kv core.Store) (catalog.Source, error) {
	if ov.Source != nil {
		return ov.Source, nil
	}
	switch s.Catalog.Source {
	case "redis":
		src := catalog.NewStoreSource(kv)
		src.Prefix = s.Catalog.KeyPrefix
		return src, nil
	default:
		src, err := catalog.OpenSQLite(s.Catalog.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, src.Close)
		return src, nil
	}
}

func newEmbedder(ctx context.Context, s EmbeddingSettings) (core.Embedder, error) {
	if s.Backend == "gemini" {
		opts := []service.GeminiOption{
			service.WithGeminiModel(s.Model),
			service.WithGeminiDimension(s.Dimension),
			service.WithGeminiTimeout(s.Timeout),
		}
		if s.BaseURL != "" {
			opts = append(opts, service.WithGeminiBaseURL(s.BaseURL))
		}
		emb, err := service.NewGeminiEmbedder(ctx, s.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return emb, nil
	}
	return service.NewHashEmbedder(s.Dimension), nil
}

// index 连接 Milvus（由 IndexCatalog 离线写入）；memory 后端在启动时用当前目录快照建索引。
func (a *App) index(ctx context.Context, s *Settings, ov *Overrides) (core.VectorDatabaseService, error) {
	switch {
	case ov.Index != nil:
		a.Index = ov.Index
		return ov.Index, nil
	case s.Index.Backend == "milvus":
		ms, err := vector.NewMilvusService(ctx, s.Index.Address,
			vector.WithMilvusAuth(s.Index.Username, s.Index.Password),
			vector.WithMilvusDatabase(s.Index.Database),
			vector.WithMilvusTimeout(s.Index.Timeout),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ms.Close)
		return ms, nil
	default:
		a.Index = store.NewMemoryVectorService()
		if err := a.IndexCatalog(ctx); err != nil {
			return nil, err
		}
		return a.Index, nil
	}
}

// IndexCatalog 把当前目录快照的每个学期写入对应 collection（不存在时创建）。
func (a *App) IndexCatalog(ctx context.Context) error {
	if a.Index == nil || a.Catalog == nil || a.embedder == nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "app is not bootstrapped")
	}
	idx := &catalog.Indexer{Index: a.Index, Embedder: a.embedder, Metric: a.metric}
	snap := a.Catalog.Snapshot()
	for sem, collection := range a.collections {
		courses := snap.Courses(sem)
		if err := idx.IndexSemester(ctx, collection, courses); err != nil {
			return fmt.Errorf("index semester %s: %w", sem, err)
		}
		logging.Ctx(ctx).Info().Str("semester", sem).Str("collection", collection).Int("courses", len(courses)).Msg("semester indexed")
	}
	return nil
}

func (a *App) ratings(s *Settings, ov *Overrides, kv core.Store) (core.RatingProvider, error) {
	if ov.Ratings != nil {
		return ov.Ratings, nil
	}
	switch s.Ratings.Source {
	case "feast":
		host, port := feast.ParseEndpoint(s.Ratings.FeastAddress)
		opts := []feast.ClientOption{feast.WithTimeout(s.Ratings.Timeout)}
		if s.Ratings.FeastToken != "" {
			opts = append(opts, feast.WithToken(s.Ratings.FeastToken, true))
		}
		client, err := feast.NewGrpcClient(host, port, s.Ratings.FeastProject, opts...)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeConfiguration, "connect feast", err)
		}
		a.closers = append(a.closers, client.Close)
		return feast.NewRatingProvider(client, s.Ratings.FeastProject), nil
	case "redis":
		return feature.NewStoreRatingProvider(kv, s.Ratings.KeyPrefix), nil
	default:
		return nil, nil
	}
}

func buildPipeline(s *Settings, deps *Deps) (*pipeline.Pipeline, error) {
	if s.PipelineFile != "" {
		cfg, err := pipeline.LoadFromYAML(s.PipelineFile)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "load pipeline", err)
		}
		return BuildPipeline(cfg, deps)
	}
	var extra []filter.Filter
	if len(s.Engine.Blacklist) > 0 {
		extra = append(extra, filter.NewBlacklistFilter(s.Engine.Blacklist, nil, ""))
	}
	r := &recall.CatalogRecall{
		Index:        deps.Index,
		Collections:  deps.Collections,
		Limit:        deps.CatalogLimit,
		Metric:       deps.Metric,
		RetryBackoff: deps.RetryBackoff,
		MaxRetries:   deps.MaxRetries,
	}
	return engine.NewPipeline(r, deps.Ratings, extra...), nil
}
