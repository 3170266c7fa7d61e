package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dpbiotech/configurator/pkg/logger"
)

type config struct {
	Config
	logger     *slog.Logger
	startHooks []func(addr string)
	stopHooks  []func(ctx context.Context) error
}

// Server wraps http.Server with signal handling, graceful shutdown and
// lifecycle hooks.
type Server struct {
	cfg *config

	mu       sync.Mutex
	srv      *http.Server
	stopOnce sync.Once
	stopErr  error
}

// New returns a Server listening on :8080 with a 15s shutdown timeout unless
// configured otherwise.
func New(opts ...Option) *Server {
	return newServer(Config{}, opts)
}

func newServer(base Config, opts []Option) *Server {
	cfg := &config{Config: base, logger: logger.Discard()}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.Config = cfg.Config.withDefaults()
	return &Server{cfg: cfg}
}

// Run binds the listener, serves handler and blocks until ctx is done, the
// process receives SIGINT or SIGTERM, or Shutdown is called.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, errors.New("server already running"))
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	s.srv = &http.Server{
		Handler:           handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
	}
	srv := s.srv
	s.mu.Unlock()

	addr := ln.Addr().String()
	s.cfg.logger.Info("http server listening", slog.String("addr", addr))
	for _, h := range s.cfg.startHooks {
		h(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var runErr error
	select {
	case <-ctx.Done():
		s.cfg.logger.Info("shutting down http server", slog.String("reason", "context done"))
		_ = s.Shutdown(context.WithoutCancel(ctx))
		runErr = <-errCh
	case got := <-sig:
		s.cfg.logger.Info("shutting down http server", slog.String("signal", got.String()))
		_ = s.Shutdown(context.WithoutCancel(ctx))
		runErr = <-errCh
	case runErr = <-errCh:
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	// Waits for a concurrent Shutdown to finish its stop hooks.
	return s.Shutdown(context.WithoutCancel(ctx))
}

// Shutdown stops accepting connections, waits for in-flight requests and
// then runs the stop hooks, all within the shutdown timeout. Repeated calls
// return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		for _, h := range s.cfg.stopHooks {
			if err := h(ctx); err != nil {
				s.cfg.logger.Error("stop hook failed", logger.Error(err))
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			s.stopErr = errors.Join(append([]error{ErrShutdown}, errs...)...)
		}
		s.cfg.logger.Info("http server stopped")
	})
	return s.stopErr
}
