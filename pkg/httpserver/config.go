package httpserver

import "time"

// Config is the environment configuration of the HTTP server. Zero durations
// leave the matching http.Server limit disabled, except ShutdownTimeout which
// falls back to 15s.
type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	return c
}

// NewFromConfig creates a Server from cfg. opts are applied on top, so
// WithAddr or WithShutdownTimeout still override the environment.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	return newServer(cfg, opts)
}
