// Package http provides the gin based HTTP server.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	apierrors "github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/infra/middleware"
	mwopts "github.com/kart-io/unirag/pkg/options/middleware"
	options "github.com/kart-io/unirag/pkg/options/server/http"
	"github.com/kart-io/unirag/pkg/response"
	"github.com/kart-io/unirag/pkg/validator"
)

// Server is the HTTP server implementation.
type Server struct {
	opts   *options.Options
	engine *gin.Engine

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates an HTTP server. Middleware is applied at construction so
// that every route group registered later inherits it.
func NewServer(serverOpts *options.Options, middlewareOpts *mwopts.Options) *Server {
	if serverOpts == nil {
		serverOpts = options.NewOptions()
	}
	if middlewareOpts == nil {
		middlewareOpts = mwopts.NewOptions()
	}

	gin.SetMode(serverOpts.Mode)
	binding.Validator = validator.Global()

	engine := gin.New()
	applyMiddleware(engine, middlewareOpts)

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrNotFound)
	})

	return &Server{opts: serverOpts, engine: engine}
}

// applyMiddleware installs the chain recovery, request id, tracing, metrics,
// logger, cors.
func applyMiddleware(e *gin.Engine, opts *mwopts.Options) {
	if opts.Recovery != nil {
		e.Use(middleware.Recovery(*opts.Recovery))
	}
	if opts.RequestID != nil {
		e.Use(middleware.RequestID(*opts.RequestID))
	}
	e.Use(middleware.Tracing())
	e.Use(middleware.Metrics(middleware.DefaultHTTPMetrics()))
	if opts.Logger != nil {
		e.Use(middleware.Logger(*opts.Logger))
	}
	if opts.CORS != nil && opts.CORS.Enabled {
		e.Use(middleware.CORS(*opts.CORS))
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start binds the listener and serves in the background. Bind errors are
// returned synchronously.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close()
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
