package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dpbiotech/configurator/modules/storefront"
	"github.com/dpbiotech/configurator/pkg/blob"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/config"
	"github.com/dpbiotech/configurator/pkg/email"
	"github.com/dpbiotech/configurator/pkg/environment"
	"github.com/dpbiotech/configurator/pkg/httpserver"
	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/logger"
	"github.com/dpbiotech/configurator/pkg/metrics"
	"github.com/dpbiotech/configurator/pkg/notifications"
	"github.com/dpbiotech/configurator/pkg/pricing"
	"github.com/dpbiotech/configurator/pkg/ratelimiter"
	"github.com/dpbiotech/configurator/pkg/redis"
	"github.com/dpbiotech/configurator/pkg/requestid"
	"github.com/dpbiotech/configurator/pkg/webhook"
)

func main() {
	cfg, err := config.Load[appConfig]()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, env, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, env environment.Environment, log *slog.Logger) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	engine := pricing.NewEngine(catalog)

	storage, closeStorage, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open license storage: %w", err)
	}

	mm := metrics.NewManager()

	store, err := license.Open(ctx, storage,
		license.WithKey(cfg.LicenseKey),
		license.WithFeatures(catalog.Features()...),
		license.WithRetry(cfg.FlushAttempts, cfg.FlushDelay),
		license.WithLogger(log),
		license.WithFlushObserver(mm.ObserveFlush),
	)
	if err != nil {
		_ = closeStorage()
		return err
	}
	mm.Registry().MustRegister(metrics.NewLicenseCollector(store))

	provider, err := checkout.NewPaddleProvider(cfg.Paddle)
	if err != nil {
		_ = closeStorage()
		return err
	}

	deliverers, err := newDeliverers(cfg, log)
	if err != nil {
		_ = closeStorage()
		return err
	}
	dispatcher := notifications.NewDispatcher(deliverers,
		notifications.WithLogger(log),
		notifications.WithTimeout(cfg.NotifyTimeout),
	)

	svc := checkout.NewService(engine, provider, store,
		checkout.WithSuccessURL(cfg.SuccessURL),
		checkout.WithLogger(log),
		checkout.WithObserver(mm),
		checkout.WithActivationHook(dispatcher.Hook()),
	)

	limiterStore, limiterReady, closeLimiter, err := newLimiterStore(ctx, cfg)
	if err != nil {
		_ = closeStorage()
		return err
	}
	limiter, err := ratelimiter.NewBucket(limiterStore, cfg.RateLimit)
	if err != nil {
		_ = closeLimiter()
		_ = closeStorage()
		return err
	}

	opts := []storefront.Option{
		storefront.WithLogger(log),
		storefront.WithEnvironment(env),
		storefront.WithMetricsHandler(mm.Handler()),
		storefront.WithReadinessCheck("license_storage", blob.Healthcheck(storage, cfg.LicenseKey)),
		storefront.WithMaxBodySize(cfg.MaxBodySize),
		storefront.WithRequestTimeout(cfg.RequestTimeout),
		storefront.WithRateLimiter(limiter),
	}
	if limiterReady != nil {
		opts = append(opts, storefront.WithReadinessCheck("rate_limit_store", limiterReady))
	}
	if dirExists(cfg.StaticDir) {
		opts = append(opts, storefront.WithStaticDir(cfg.StaticDir))
	}
	app := storefront.New(engine, svc, store, opts...)

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(store.Flush),
		httpserver.WithStopHook(dispatcher.Wait),
		httpserver.WithStopHook(func(context.Context) error {
			return errors.Join(closeLimiter(), closeStorage())
		}),
	)

	log.Info("configurator starting",
		slog.String("env", env.String()),
		slog.String("currency", catalog.Currency),
		slog.String("storage", cfg.Storage.Backend),
		slog.Int("licenses", store.Len()),
	)

	return srv.Run(ctx, app.Handler())
}

// newLimiterStore picks the rate limit backend. Redis shares buckets between
// instances and comes with a readiness check; memory is per process.
func newLimiterStore(ctx context.Context, cfg appConfig) (ratelimiter.Store, httpserver.Check, func() error, error) {
	switch strings.ToLower(cfg.RateLimitBackend) {
	case "redis":
		client, err := redis.Connect(ctx, redis.Config{
			URL:            cfg.RateLimitRedisURL,
			PingAttempts:   3,
			PingInterval:   time.Second,
			ConnectTimeout: 10 * time.Second,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("rate limit store: %w", err)
		}
		return ratelimiter.NewRedisStore(client, cfg.Name+":ratelimit:"), redis.Healthcheck(client), client.Close, nil
	case "memory", "":
		store := ratelimiter.NewMemoryStore()
		return store, nil, func() error { store.Close(); return nil }, nil
	default:
		return nil, nil, nil, fmt.Errorf("rate limit store: unknown backend %q", cfg.RateLimitBackend)
	}
}

func loadCatalog(cfg appConfig) (*pricing.Catalog, error) {
	var (
		catalog *pricing.Catalog
		err     error
	)
	if cfg.CatalogFile != "" {
		catalog, err = pricing.LoadCatalogFile(cfg.CatalogFile)
	} else {
		catalog, err = pricing.DefaultCatalog()
	}
	if err != nil {
		return nil, err
	}
	if c := strings.ToUpper(strings.TrimSpace(cfg.Currency)); c != "" {
		catalog.Currency = c
	}
	return catalog, nil
}

func newDeliverers(cfg appConfig, log *slog.Logger) ([]notifications.Deliverer, error) {
	var deliverers []notifications.Deliverer

	if cfg.Notify.EmailEnabled {
		sender, err := email.New(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("email sender: %w", err)
		}
		deliverers = append(deliverers, notifications.NewEmailDeliverer(sender, cfg.Email.SupportEmail))
	}

	if cfg.Notify.WebhookURL != "" {
		sender := webhook.NewSender(
			webhook.WithSecret(cfg.Notify.WebhookSecret),
			webhook.WithMaxRetries(cfg.Notify.WebhookRetries),
			webhook.WithTimeout(cfg.Notify.WebhookTimeout),
			webhook.WithCircuitBreaker(webhook.NewCircuitBreaker(cfg.Notify.WebhookBreaker)),
			webhook.WithLogger(log),
		)
		deliverers = append(deliverers, notifications.NewWebhookDeliverer(sender, cfg.Notify.WebhookURL))
	}

	if len(deliverers) == 0 {
		deliverers = append(deliverers, notifications.NoOpDeliverer{})
	}
	return deliverers, nil
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("static directory unavailable", slog.String("dir", dir), logger.Error(err))
		}
		return false
	}
	return info.IsDir()
}
