// Package server serves the rules site over HTTP and wires the configured
// collaborators together.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"git.home.luguber.info/inful/rulesweb/internal/config"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

// Server runs the HTTP listener, the asset watchers and the cache cleaner.
type Server struct {
	app       *App
	http      *http.Server
	scheduler *Scheduler
	addr      net.Addr

	mu      sync.Mutex
	started bool
}

// New creates a server for app. Nothing runs until Start.
func New(app *App) *Server {
	cfg := app.Config.Server
	return &Server{
		app: app,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(app),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start binds the listener and starts serving, watching and cleaning in the
// background. Binding errors are returned before anything else starts.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return stderrors.New("server already started")
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}
	s.addr = ln.Addr()

	cfg := s.app.Config
	if cfg.Assets.Watch {
		if err := s.watchAssets(ctx, cfg); err != nil {
			_ = ln.Close()
			return err
		}
	}

	if cfg.Cache.CleanInterval > 0 {
		scheduler, err := NewScheduler(s.app.Logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		if _, err := scheduler.ScheduleCacheClean(ctx, s.app.Cleaner(), cfg.Cache.CleanInterval); err != nil {
			_ = ln.Close()
			return err
		}
		scheduler.Start()
		s.scheduler = scheduler
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.app.Logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	s.started = true
	s.app.Logger.Info("HTTP server started",
		slog.String("addr", s.addr.String()),
		slog.String("environment", string(cfg.Environment)))
	return nil
}

func (s *Server) watchAssets(ctx context.Context, cfg *config.Config) error {
	roots := func(dirs []config.AssetDirConfig) []string {
		out := make([]string, 0, len(dirs))
		for _, d := range dirs {
			out = append(out, d.Root)
		}
		return out
	}
	if len(cfg.Assets.Styles) > 0 {
		if err := s.app.Styles.Watch(ctx, roots(cfg.Assets.Styles)...); err != nil {
			return fmt.Errorf("failed to watch stylesheets: %w", err)
		}
	}
	if len(cfg.Assets.Scripts) > 0 {
		if err := s.app.Scripts.Watch(ctx, roots(cfg.Assets.Scripts)...); err != nil {
			return fmt.Errorf("failed to watch scripts: %w", err)
		}
	}
	return nil
}

// Stop shuts the listener down gracefully and stops the scheduler.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
		s.scheduler = nil
	}
	if len(errs) > 0 {
		return stderrors.Join(errs...)
	}
	s.app.Logger.Info("HTTP server stopped")
	return nil
}

// Run starts the server and blocks until ctx is done, then stops it within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), s.app.Config.Server.ShutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}
