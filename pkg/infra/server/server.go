package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/unirag/pkg/infra/server/transport/http"
	mwopts "github.com/kart-io/unirag/pkg/options/middleware"
	httpopts "github.com/kart-io/unirag/pkg/options/server/http"
)

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	http            *httpopts.Options
	middleware      *mwopts.Options
	shutdownTimeout time.Duration
}

// WithHTTPOptions sets the HTTP server options.
func WithHTTPOptions(o *httpopts.Options) Option {
	return func(m *managerOptions) { m.http = o }
}

// WithMiddleware sets the middleware options.
func WithMiddleware(o *mwopts.Options) Option {
	return func(m *managerOptions) { m.middleware = o }
}

// WithShutdownTimeout bounds graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(m *managerOptions) { m.shutdownTimeout = d }
}

// Manager owns the HTTP server and any extra Runnables and drives their lifecycle.
type Manager struct {
	opts       managerOptions
	httpServer *http.Server
	servers    []Runnable
	mu         sync.Mutex
	started    bool
}

// NewManager creates a new server manager with the given options.
func NewManager(opts ...Option) *Manager {
	o := managerOptions{
		http:       httpopts.NewOptions(),
		middleware: mwopts.NewOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.shutdownTimeout <= 0 {
		o.shutdownTimeout = o.http.ShutdownTimeout
	}

	return &Manager{
		opts:       o,
		httpServer: http.NewServer(o.http, o.middleware),
	}
}

// HTTPServer returns the HTTP server.
func (m *Manager) HTTPServer() *http.Server {
	return m.httpServer
}

// AddServer adds a custom server to the manager.
func (m *Manager) AddServer(server Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, server)
}

// Start starts the HTTP server, then the custom servers. A failing custom
// server stops everything started before it.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("server manager already started")
	}
	m.started = true
	servers := append([]Runnable(nil), m.servers...)
	m.mu.Unlock()

	if err := m.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	logger.Infow("HTTP server started", "addr", m.httpServer.Addr())

	for i, server := range servers {
		if err := server.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = servers[j].Stop(ctx)
			}
			_ = m.httpServer.Stop(ctx)
			return fmt.Errorf("failed to start server %s: %w", server.Name(), err)
		}
		logger.Infow("Custom server started", "name", server.Name())
	}
	return nil
}

// Stop stops all servers, custom servers first.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	servers := append([]Runnable(nil), m.servers...)
	m.mu.Unlock()

	var errs []error
	for i := len(servers) - 1; i >= 0; i-- {
		if err := servers[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", servers[i].Name(), err))
		}
	}
	if err := m.httpServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
	}
	logger.Info("HTTP server stopped")

	return utilerrors.NewAggregate(errs)
}

// Run starts all servers, blocks until ctx is done, then shuts down
// within the configured shutdown timeout.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.opts.shutdownTimeout)
	defer cancel()
	return m.Stop(shutdownCtx)
}
