package main

import (
	"time"

	"github.com/dpbiotech/configurator/pkg/blob"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/email"
	"github.com/dpbiotech/configurator/pkg/httpserver"
	"github.com/dpbiotech/configurator/pkg/ratelimiter"
	"github.com/dpbiotech/configurator/pkg/webhook"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	Name        string `env:"APP_NAME" envDefault:"configurator"`
	CatalogFile string `env:"CATALOG_FILE"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"./public"`
	Currency    string `env:"CURRENCY"`
	SuccessURL  string `env:"SUCCESS_URL" envDefault:"http://localhost:8080/success.html"`

	LicenseKey     string        `env:"LICENSE_STORE_KEY" envDefault:"licenses.csv"`
	FlushAttempts  uint          `env:"LICENSE_FLUSH_ATTEMPTS" envDefault:"3"`
	FlushDelay     time.Duration `env:"LICENSE_FLUSH_DELAY" envDefault:"100ms"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"25s"`
	MaxBodySize    int64         `env:"MAX_BODY_SIZE" envDefault:"1048576"`
	NotifyTimeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"30s"`

	RateLimitBackend  string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RateLimitRedisURL string `env:"RATE_LIMIT_REDIS_URL" envDefault:"redis://localhost:6379/1"`

	HTTP      httpserver.Config
	Paddle    checkout.PaddleConfig
	Storage   blob.Config
	Email     email.Config
	Notify    notifyConfig
	RateLimit ratelimiter.Config
}

type notifyConfig struct {
	WebhookURL     string        `env:"ACTIVATION_WEBHOOK_URL"`
	WebhookSecret  string        `env:"ACTIVATION_WEBHOOK_SECRET"`
	WebhookRetries uint          `env:"ACTIVATION_WEBHOOK_RETRIES" envDefault:"3"`
	WebhookTimeout time.Duration `env:"ACTIVATION_WEBHOOK_TIMEOUT" envDefault:"10s"`
	EmailEnabled   bool          `env:"ACTIVATION_EMAIL_ENABLED" envDefault:"true"`
	WebhookBreaker webhook.BreakerConfig
}
