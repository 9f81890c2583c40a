package unirag

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/unirag/internal/unirag/catalog"
	"github.com/kart-io/unirag/internal/unirag/handler"
	"github.com/kart-io/unirag/internal/unirag/router"
	"github.com/kart-io/unirag/pkg/infra/app"
	"github.com/kart-io/unirag/pkg/infra/server"
	"github.com/kart-io/unirag/pkg/infra/tracing"
)

// Server represents the unirag server.
type Server struct {
	srv          *server.Manager
	components   *Components
	tracer       *tracing.Provider
	indexOnStart bool
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. 初始化日志
	if err := cfg.InitLogger(); err != nil {
		return nil, err
	}
	logger.Info("Starting unirag service...")
	cfg.logSummary()

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions, app.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 3. 组装目录、索引、缓存与查询管道
	components, err := cfg.Build(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	// 4. 初始化服务器并注册路由
	serverManager := server.NewManager(
		server.WithHTTPOptions(cfg.HTTPOptions),
		server.WithMiddleware(cfg.MiddlewareOptions),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
	)
	if err := router.Register(serverManager, handler.NewUniragHandler(components.Pipeline)); err != nil {
		_ = components.Close()
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return &Server{
		srv:          serverManager,
		components:   components,
		tracer:       tp,
		indexOnStart: cfg.RAGOptions.IndexOnStart,
	}, nil
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.components.Close(); err != nil {
			logger.Warnw("failed to close components", "error", err.Error())
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("failed to shutdown tracer provider", "error", err.Error())
		}
		_ = logger.Flush()
	}()

	s.components.Catalog.OnReload(func(c *catalog.Catalog) {
		logger.Infow("catalog reloaded, filter values updated",
			"universities", len(c.Universities()),
			"hint", "run `unirag index` to re-embed changed records",
		)
	})
	if err := s.components.Catalog.Watch(ctx); err != nil {
		logger.Warnw("catalog hot reload disabled", "error", err.Error())
	}

	go s.warmUp(ctx)

	return s.srv.Run(ctx)
}

// warmUp 按需在启动时建立索引，完成后将管道置为就绪。
func (s *Server) warmUp(ctx context.Context) {
	defer func() {
		s.components.Pipeline.SetReady(true)
		logger.Info("unirag service is ready")
	}()

	if !s.indexOnStart {
		return
	}

	n, err := s.components.Index.Count(ctx)
	if err != nil {
		logger.Warnw("failed to count indexed chunks", "error", err.Error())
	}
	if n > 0 {
		logger.Infow("index already populated, skipping startup indexing", "chunks", n)
		return
	}

	if err := s.components.Rebuild(ctx); err != nil {
		logger.Errorw("startup indexing failed", "error", err.Error())
	}
}
