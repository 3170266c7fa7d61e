package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dpbiotech/configurator/handler"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/environment"
	"github.com/dpbiotech/configurator/pkg/httpserver"
	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/logger"
	"github.com/dpbiotech/configurator/pkg/pricing"
	"github.com/dpbiotech/configurator/pkg/ratelimiter"
	"github.com/dpbiotech/configurator/pkg/requestid"
)

// PaddleSignatureHeader carries the webhook signature.
const PaddleSignatureHeader = "Paddle-Signature"

// Checkout is the payment flow behind the storefront. *checkout.Service
// implements it.
type Checkout interface {
	CreateCheckout(ctx context.Context, o checkout.Order) (*checkout.Link, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Licenses looks up license records. *license.Store implements it.
type Licenses interface {
	Get(serial string) (license.Record, error)
}

// Module serves the storefront API.
type Module struct {
	engine   *pricing.Engine
	checkout Checkout
	licenses Licenses

	logger         *slog.Logger
	env            environment.Environment
	staticDir      string
	metrics        http.Handler
	checks         map[string]httpserver.Check
	readyTimeout   time.Duration
	maxBodySize    int64
	requestTimeout time.Duration
	limiter        *ratelimiter.Bucket
	errorHandler   handler.ErrorHandler
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEnvironment tags request contexts with env.
func WithEnvironment(env environment.Environment) Option {
	return func(m *Module) {
		m.env = env
	}
}

// WithStaticDir serves the storefront pages from dir.
func WithStaticDir(dir string) Option {
	return func(m *Module) {
		m.staticDir = dir
	}
}

// WithMetricsHandler exposes h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(m *Module) {
		m.metrics = h
	}
}

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, check httpserver.Check) Option {
	return func(m *Module) {
		if check != nil {
			m.checks[name] = check
		}
	}
}

// WithMaxBodySize limits request bodies in bytes.
func WithMaxBodySize(n int64) Option {
	return func(m *Module) {
		if n > 0 {
			m.maxBodySize = n
		}
	}
}

// WithRequestTimeout bounds each API request.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Module) {
		m.requestTimeout = d
	}
}

// WithRateLimiter limits checkout creation and quotes per client IP.
func WithRateLimiter(b *ratelimiter.Bucket) Option {
	return func(m *Module) {
		m.limiter = b
	}
}

// New creates the storefront module. Panics if a dependency is nil.
func New(engine *pricing.Engine, co Checkout, licenses Licenses, opts ...Option) *Module {
	if engine == nil || co == nil || licenses == nil {
		panic("storefront: engine, checkout and licenses are required")
	}

	m := &Module{
		engine:         engine,
		checkout:       co,
		licenses:       licenses,
		logger:         logger.Discard(),
		env:            environment.Development,
		checks:         make(map[string]httpserver.Check),
		readyTimeout:   5 * time.Second,
		maxBodySize:    1 << 20,
		requestTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.errorHandler = handler.NewErrorHandler(m.logger, handler.WithErrorMapper(MapError))
	return m
}

// Handler returns the storefront router.
func (m *Module) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestid.Middleware,
		environment.Middleware(m.env),
		middleware.Recoverer,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSONError(handler.ErrNotFound).Render(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSONError(handler.ErrMethodNotAllowed).Render(w, r)
	})

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(m.logger, m.readyTimeout, m.checks))
	if m.metrics != nil {
		r.Handle("/metrics", m.metrics)
	}

	r.Group(func(api chi.Router) {
		if m.requestTimeout > 0 {
			api.Use(middleware.Timeout(m.requestTimeout))
		}
		api.With(m.rateLimit()...).Post("/create-checkout-session", m.createCheckoutSession())
		api.With(m.rateLimit()...).Post("/quote", m.quote())
		api.Get("/catalog", m.catalog())
		api.Get("/licenses/{serial}", m.getLicense())
		api.Post("/webhooks/paddle", m.paddleWebhook())
	})

	if m.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(m.staticDir)))
	}

	return r
}

func (m *Module) rateLimit() []func(http.Handler) http.Handler {
	if m.limiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		ratelimiter.Middleware(m.limiter, ratelimiter.ByClientIP,
			ratelimiter.WithMiddlewareLogger(m.logger),
			ratelimiter.WithLimitedHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = handler.JSONError(ErrRateLimited).Render(w, r)
			})),
		),
	}
}
