// Package options contains flags and options for initializing the unirag server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/unirag/internal/unirag"
	cliflag "github.com/kart-io/unirag/pkg/app/cliflag"
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

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// MiddlewareOptions contains recovery, request id, access log and CORS settings.
	MiddlewareOptions *mwopts.Options `json:"middleware" mapstructure:"middleware"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`

	// MilvusOptions is used when rag.vector-store is milvus.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// PGVectorOptions is used when rag.vector-store is pgvector.
	PGVectorOptions *pgvectoropts.Options `json:"pgvector" mapstructure:"pgvector"`

	// RedisOptions is used when cache.backend is redis.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// BadgerOptions is used when cache.backend is badger.
	BadgerOptions *badgeropts.Options `json:"badger" mapstructure:"badger"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAGOptions contains retrieval pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// CacheOptions contains query cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8000"

	return &ServerOptions{
		HTTPOptions:       httpOpts,
		MiddlewareOptions: mwopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracing.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		PGVectorOptions:   pgvectoropts.NewOptions(),
		RedisOptions:      redisopts.NewOptions(),
		BadgerOptions:     badgeropts.NewOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		ChatOptions:       llmopts.NewChatOptions(),
		RAGOptions:        ragopts.NewOptions(),
		CacheOptions:      cacheopts.NewOptions(),
		ShutdownTimeout:   30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.MiddlewareOptions.AddFlags(fss.FlagSet("middleware"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.PGVectorOptions.AddFlags(fss.FlagSet("pgvector"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.BadgerOptions.AddFlags(fss.FlagSet("badger"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.RedisOptions.Complete(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid. Backend
// options are only checked when their backend is selected.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.MiddlewareOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	errs = append(errs, prefixed("chat", o.ChatOptions.Validate())...)
	errs = append(errs, o.CacheOptions.Validate()...)

	switch o.RAGOptions.VectorStore {
	case ragopts.VectorStoreMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
	case ragopts.VectorStorePGVector:
		errs = append(errs, o.PGVectorOptions.Validate()...)
	}

	if o.CacheOptions.Enabled {
		switch o.CacheOptions.Backend {
		case cacheopts.BackendRedis:
			errs = append(errs, o.RedisOptions.Validate()...)
		case cacheopts.BackendBadger:
			errs = append(errs, o.BadgerOptions.Validate()...)
		}
	}

	return utilerrors.NewAggregate(errs)
}

func prefixed(section string, errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		out = append(out, fmt.Errorf("%s.%w", section, err))
	}
	return out
}

// Config builds an unirag.Config based on ServerOptions.
func (o *ServerOptions) Config() (*unirag.Config, error) {
	return &unirag.Config{
		HTTPOptions:       o.HTTPOptions,
		MiddlewareOptions: o.MiddlewareOptions,
		LogOptions:        o.LogOptions,
		TracingOptions:    o.TracingOptions,
		MilvusOptions:     o.MilvusOptions,
		PGVectorOptions:   o.PGVectorOptions,
		RedisOptions:      o.RedisOptions,
		BadgerOptions:     o.BadgerOptions,
		EmbeddingOptions:  o.EmbeddingOptions,
		ChatOptions:       o.ChatOptions,
		RAGOptions:        o.RAGOptions,
		CacheOptions:      o.CacheOptions,
		ShutdownTimeout:   o.ShutdownTimeout,
	}, nil
}
