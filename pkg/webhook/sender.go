package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
)

const userAgent = "configurator-webhook/1.0"

// Delivery describes the outcome of one Send call.
type Delivery struct {
	URL        string
	EventID    string
	EventType  string
	Attempts   int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Option configures a Sender.
type Option func(*Sender)

// WithSecret enables request signing.
func WithSecret(secret string) Option {
	return func(s *Sender) { s.secret = secret }
}

// WithMaxRetries sets how many times a failed delivery is retried.
func WithMaxRetries(n uint) Option {
	return func(s *Sender) { s.maxRetries = n }
}

// WithBackoff sets the initial and maximum delay between attempts.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(s *Sender) {
		s.initialDelay = initial
		s.maxDelay = maxDelay
	}
}

// WithTimeout bounds a single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *Sender) { s.timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithCircuitBreaker guards deliveries with cb.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(s *Sender) { s.breaker = cb }
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(s *Sender) { s.headers.Set(key, value) }
}

// WithOnDelivery registers a callback invoked after every Send.
func WithOnDelivery(fn func(Delivery)) Option {
	return func(s *Sender) { s.onDelivery = fn }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sender delivers events over HTTP. Safe for concurrent use.
type Sender struct {
	client       *http.Client
	secret       string
	maxRetries   uint
	initialDelay time.Duration
	maxDelay     time.Duration
	timeout      time.Duration
	breaker      *CircuitBreaker
	headers      http.Header
	onDelivery   func(Delivery)
	logger       *slog.Logger
	now          func() time.Time
}

// NewSender returns a Sender with 3 retries, 1s..30s backoff and a 30s
// per-attempt timeout unless overridden.
func NewSender(opts ...Option) *Sender {
	s := &Sender{
		client:       &http.Client{},
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		timeout:      30 * time.Second,
		headers:      make(http.Header),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send POSTs the JSON encoding of event to endpoint.
func (s *Sender) Send(ctx context.Context, endpoint string, event Event) error {
	if err := validateURL(endpoint); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	start := s.now()
	d := Delivery{URL: endpoint, EventID: event.ID, EventType: event.Type}

	var last error
	err = retry.Do(
		func() error {
			d.Attempts++
			if s.breaker != nil && !s.breaker.Allow() {
				last = ErrCircuitOpen
				return retry.Unrecoverable(last)
			}
			status, err := s.attempt(ctx, endpoint, event.ID, payload)
			d.StatusCode = status
			if s.breaker != nil {
				s.breaker.Done(err)
			}
			last = err
			if err != nil && isPermanent(status) {
				last = errors.Join(ErrPermanentFailure, err)
				return retry.Unrecoverable(last)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.maxRetries+1),
		retry.Delay(s.initialDelay),
		retry.MaxDelay(s.maxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(s.initialDelay/2+time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.DebugContext(ctx, "webhook delivery retry",
				slog.String("url", endpoint),
				slog.String("event_id", event.ID),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err))
		}),
	)

	d.Duration = s.now().Sub(start)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = ctx.Err()
		case last == nil:
		case errors.Is(last, ErrCircuitOpen), errors.Is(last, ErrPermanentFailure):
			err = last
		default:
			err = errors.Join(ErrDeliveryFailed, last)
		}
	}
	d.Err = err
	if s.onDelivery != nil {
		s.onDelivery(d)
	}
	return err
}

func (s *Sender) attempt(ctx context.Context, endpoint, id string, payload []byte) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if s.secret != "" {
		sig, err := Sign(s.secret, payload, id, s.now())
		if err != nil {
			return 0, err
		}
		sig.Apply(req.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return resp.StatusCode, nil
}

func isPermanent(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout && status != http.StatusTooManyRequests
}

func validateURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
