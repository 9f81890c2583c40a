// Package unirag wires the university RAG service: catalog, vector index,
// query cache, generator and the HTTP server.
package unirag

import (
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/unirag/pkg/infra/app"
	"github.com/kart-io/unirag/pkg/infra/tracing"
	badgeropts "github.com/kart-io/unirag/pkg/options/badger"
	cacheopts "github.com/kart-io/unirag/pkg/options/cache"
	llmopts "github.com/kart-io/unirag/pkg/options/llm"
	logopts "github.com/kart-io/unirag/pkg/options/logger"
	mwopts "github.com/kart-io/unirag/pkg/options/middleware"
	milvusopts "github.com/kart-io/unirag/pkg/options/milvus"
	pgvectoropts "github.com/kart-io/unirag/pkg/options/pgvector"
	ragopts "github.com/kart-io/unirag/pkg/options/rag"
	redisopts "github.com/kart-io/unirag/pkg/options/redis"
	httpopts "github.com/kart-io/unirag/pkg/options/server/http"
)

// Name is the name of the service.
const Name = "unirag"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions       *httpopts.Options
	MiddlewareOptions *mwopts.Options
	LogOptions        *logopts.Options
	TracingOptions    *tracing.Options
	MilvusOptions     *milvusopts.Options
	PGVectorOptions   *pgvectoropts.Options
	RedisOptions      *redisopts.Options
	BadgerOptions     *badgeropts.Options
	EmbeddingOptions  *llmopts.ProviderOptions
	ChatOptions       *llmopts.ProviderOptions
	RAGOptions        *ragopts.Options
	CacheOptions      *cacheopts.Options
	ShutdownTimeout   time.Duration
}

// InitLogger installs the global logger with the service fields.
func (cfg *Config) InitLogger() error {
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func (cfg *Config) logSummary() {
	logger.Infow("unirag configuration",
		"vector_store", cfg.RAGOptions.VectorStore,
		"catalog", cfg.RAGOptions.CatalogPath,
		"embedding", cfg.EmbeddingOptions.Provider+"/"+cfg.EmbeddingOptions.Model,
		"chat", cfg.ChatOptions.Provider+"/"+cfg.ChatOptions.Model,
		"cache.enabled", cfg.CacheOptions.Enabled,
		"cache.backend", cfg.CacheOptions.Backend,
		"top_k", cfg.RAGOptions.TopK,
	)
}
