// Package app wires the HTTP server runtime: listener, router, job workers
// and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/api"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/deps"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/httpx"
)

// App is one server instance.
type App struct {
	cfg    config.ServerConfig
	deps   *deps.Deps
	server *http.Server
	logger zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	bound    chan struct{}
}

// Option customizes the API layer.
type Option func(*api.Config)

// WithDefaultPorts sets the port spec used when a request omits one.
func WithDefaultPorts(spec string) Option {
	return func(c *api.Config) { c.DefaultPorts = spec }
}

// New validates cfg and builds the HTTP server. It does not listen yet.
func New(ctx context.Context, cfg config.ServerConfig, d *deps.Deps, opts ...Option) (*App, error) {
	if d == nil {
		return nil, errors.New("server dependencies are required")
	}
	if d.Jobs == nil {
		return nil, errors.New("job manager is required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Port)
	}

	apiCfg := api.DefaultConfig()
	for _, opt := range opts {
		opt(&apiCfg)
	}
	handler := httpx.NewRouter(cfg, &api.Deps{
		Jobs:   d.Jobs,
		Config: apiCfg,
		Ready:  d.Ready,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	return &App{
		cfg:    cfg,
		deps:   d,
		server: srv,
		logger: d.Logger.With().Str("component", "server").Logger(),
		bound:  make(chan struct{}),
	}, nil
}

// Run listens, starts the job workers and serves until ctx is canceled.
// Shutdown drains in-flight requests, then stops the job workers.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	close(a.bound)

	if err := a.deps.Jobs.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("start job workers: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Serve(ln)
	}()

	a.deps.SetReady()
	a.logger.Info().Str("addr", ln.Addr().String()).Msg("Server listening")

	select {
	case err := <-serveErr:
		a.deps.SetNotReady()
		_ = a.stopJobs()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.deps.SetNotReady()
	a.logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.deps.Jobs.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("job shutdown: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info().Msg("Server stopped")
	return nil
}

func (a *App) stopJobs() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.deps.Jobs.Stop(ctx)
}

// Addr blocks until Run has bound its listener and returns the address.
// It returns nil if ctx ends first.
func (a *App) Addr(ctx context.Context) net.Addr {
	select {
	case <-a.bound:
	case <-ctx.Done():
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener.Addr()
}
