package unirag

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/unirag/internal/unirag/biz"
	"github.com/kart-io/unirag/internal/unirag/cache"
	"github.com/kart-io/unirag/internal/unirag/catalog"
	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/internal/unirag/store"
	"github.com/kart-io/unirag/pkg/component/milvus"
	"github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/unirag/pkg/llm/gemini"
	_ "github.com/kart-io/unirag/pkg/llm/offline"
	_ "github.com/kart-io/unirag/pkg/llm/ollama"
	_ "github.com/kart-io/unirag/pkg/llm/openai"
	"github.com/kart-io/unirag/pkg/llm/resilience"
	cacheopts "github.com/kart-io/unirag/pkg/options/cache"
	ragopts "github.com/kart-io/unirag/pkg/options/rag"
)

// Components holds everything a query or a rebuild needs. The HTTP server,
// the index command and the ask command all share it.
type Components struct {
	Catalog  *catalog.Catalog
	Index    *store.Index
	Pipeline *biz.Pipeline
	Metrics  *metrics.RAGMetrics

	closers []func() error
}

// Build assembles the components from the configuration.
func (cfg *Config) Build(ctx context.Context) (_ *Components, err error) {
	c := &Components{Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	// 1. 大学目录
	c.Catalog, err = catalog.Load(cfg.RAGOptions.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Infow("Catalog loaded",
		"path", cfg.RAGOptions.CatalogPath,
		"universities", len(c.Catalog.Universities()),
	)

	// 2. LLM 供应商
	embedConfig := cfg.EmbeddingOptions.ToConfigMap()
	embedConfig["dimension"] = cfg.RAGOptions.EmbeddingDim
	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, embedConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	embedder := resilience.WrapEmbedding(embedProvider, resilience.DefaultRetryConfig(), resilience.DefaultBreakerConfig())
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", embedProvider.Model(),
	)

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	chat := resilience.WrapChat(chatProvider, resilience.DefaultRetryConfig(), resilience.DefaultBreakerConfig())
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// 3. 向量存储
	backend, err := cfg.newBackend(ctx)
	if err != nil {
		return nil, err
	}

	c.Index, err = store.NewIndex(embedder, backend, store.Config{
		BatchSize:     cfg.RAGOptions.BatchSize,
		Workers:       cfg.RAGOptions.Workers,
		EmbedTimeout:  cfg.RAGOptions.EmbedTimeout,
		SearchTimeout: cfg.RAGOptions.SearchTimeout,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	// Index.Close 同时关闭后端
	c.closers = append(c.closers, c.Index.Close)
	logger.Infow("Vector store initialized", "backend", backend.Name())

	// 4. 查询缓存
	queryCache, err := cfg.newCache(ctx)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, queryCache.Close)

	// 5. 查询管道
	generator := biz.NewGenerator(chat, biz.GeneratorConfig{
		MaxRequestsPerMinute: cfg.RAGOptions.MaxRequestsPerMinute,
		Timeout:              cfg.RAGOptions.GenerateTimeout,
	}, c.Metrics)

	c.Pipeline = biz.NewPipeline(
		c.Index,
		biz.NewAssembler(cfg.RAGOptions.MaxContextLength),
		generator,
		queryCache,
		c.Catalog,
		c.Metrics,
		biz.PipelineConfig{
			TopK:         cfg.RAGOptions.TopK,
			Temperature:  cfg.RAGOptions.Temperature,
			CacheEnabled: cfg.CacheOptions.Enabled,
			VectorStore:  backend.Name(),
			EmbedName:    cfg.EmbeddingOptions.Provider + "/" + embedProvider.Model(),
		},
	)
	logger.Infow("RAG pipeline initialized",
		"cache.enabled", cfg.CacheOptions.Enabled,
		"cache.backend", queryCache.Name(),
	)

	return c, nil
}

func (cfg *Config) newBackend(ctx context.Context) (store.Backend, error) {
	dim := cfg.RAGOptions.EmbeddingDim

	switch cfg.RAGOptions.VectorStore {
	case ragopts.VectorStoreMilvus:
		client, err := milvus.New(ctx, cfg.MilvusOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		return store.NewMilvus(client, cfg.MilvusOptions.Collection, dim), nil
	case ragopts.VectorStorePGVector:
		pg, err := store.OpenPGVector(ctx, cfg.PGVectorOptions, dim)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize pgvector: %w", err)
		}
		return pg, nil
	case ragopts.VectorStoreMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.RAGOptions.VectorStore)
	}
}

// newCache 创建查询缓存。Redis 不可达时降级为不缓存，与生成失败不缓存一致。
func (cfg *Config) newCache(ctx context.Context) (cache.QueryCache, error) {
	opts := cfg.CacheOptions
	if !opts.Enabled {
		logger.Info("Cache is disabled")
		return cache.NewNoop(), nil
	}

	var redisClient *goredis.Client
	if opts.Backend == cacheopts.BackendRedis {
		redisClient = cfg.RedisOptions.NewClient()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
			_ = redisClient.Close()
			return cache.NewNoop(), nil
		}
		logger.Infow("Redis cache initialized",
			"host", cfg.RedisOptions.Host,
			"port", cfg.RedisOptions.Port,
			"ttl", opts.TTL,
		)
	}

	qc, err := cache.New(opts, redisClient, cfg.BadgerOptions)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	if redisClient != nil {
		return &redisOwned{QueryCache: qc, client: redisClient}, nil
	}
	return qc, nil
}

// redisOwned 关闭缓存时一并关闭 Redis 连接。
type redisOwned struct {
	cache.QueryCache
	client *goredis.Client
}

func (r *redisOwned) Close() error {
	return utilerrors.NewAggregate([]error{r.QueryCache.Close(), r.client.Close()})
}

// Rebuild prepares every catalog record, replaces the index contents and
// clears the query cache.
func (c *Components) Rebuild(ctx context.Context) error {
	start := time.Now()
	chunks := biz.PrepareAll(c.Catalog.Universities())

	err := c.Index.Index(ctx, chunks)
	c.Metrics.RecordIndex(len(chunks), time.Since(start), err)
	if err != nil {
		logger.Errorw("index rebuild failed", "chunks", len(chunks), "error", err.Error())
		return errors.ErrRAGIndexFailed.WithCause(err)
	}

	if err := c.Pipeline.ClearCache(ctx); err != nil {
		logger.Warnw("failed to clear cache after rebuild", "error", err.Error())
	}

	logger.Infow("index rebuilt",
		"chunks", len(chunks),
		"duration", time.Since(start).String(),
	)
	return nil
}

// Close releases backends in reverse order of creation.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return utilerrors.NewAggregate(errs)
}
