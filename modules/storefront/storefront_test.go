package storefront_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dpbiotech/configurator/modules/storefront"
	"github.com/dpbiotech/configurator/pkg/blob"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/pricing"
	"github.com/dpbiotech/configurator/pkg/ratelimiter"
	"github.com/dpbiotech/configurator/pkg/requestid"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckout(ctx context.Context, s checkout.Session) (*checkout.Link, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Link), args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*checkout.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Event), args.Error(1)
}

type failingStorage struct{}

func (failingStorage) Read(context.Context, string) ([]byte, error) {
	return nil, blob.ErrNotFound
}

func (failingStorage) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

type fixture struct {
	handler  http.Handler
	provider *mockProvider
	store    *license.Store
	engine   *pricing.Engine
}

func newFixture(t *testing.T, storage license.Storage, opts ...storefront.Option) *fixture {
	t.Helper()

	catalog, err := pricing.DefaultCatalog()
	require.NoError(t, err)
	engine := pricing.NewEngine(catalog)

	if storage == nil {
		storage = blob.NewMemoryStorage()
	}
	store, err := license.Open(context.Background(), storage, license.WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	provider := &mockProvider{}
	svc := checkout.NewService(engine, provider, store,
		checkout.WithSuccessURL("https://shop.example/success.html"))

	return &fixture{
		handler:  storefront.New(engine, svc, store, opts...).Handler(),
		provider: provider,
		store:    store,
		engine:   engine,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	t.Run("prices server-side and returns the url", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		mini, _ := f.engine.Catalog().Product("dp-mini-base")

		f.provider.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(s checkout.Session) bool {
			return len(s.Lines) == 1 &&
				s.Lines[0].UnitAmount == mini.Price+18000 &&
				s.Metadata[checkout.MetaSerial] == "DP-0042" &&
				s.Email == "jane@example.com"
		})).Return(&checkout.Link{URL: "https://pay.example/txn_1", ID: "txn_1"}, nil).Once()

		w, env := f.do(t, http.MethodPost, "/create-checkout-session",
			`{"items":[{"id":"dp-mini-base","options":{"objectives":"60mm"}}],"email":"jane@example.com","serial":"dp-0042"}`, nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var link checkout.Link
		require.NoError(t, json.Unmarshal(env.Data, &link))
		assert.Equal(t, "https://pay.example/txn_1", link.URL)
		assert.NotEmpty(t, w.Header().Get(requestid.Header))
		f.provider.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "unknown product",
			body:   `{"items":[{"id":"dp-max"}],"email":"jane@example.com"}`,
			status: http.StatusBadRequest,
			code:   "invalid_product",
		},
		{
			name:   "missing email",
			body:   `{"items":[{"id":"dp-mini-base"}]}`,
			status: http.StatusBadRequest,
			code:   "missing_required_field",
		},
		{
			name:   "missing items",
			body:   `{"items":[],"email":"jane@example.com"}`,
			status: http.StatusBadRequest,
			code:   "missing_required_field",
		},
		{
			name:   "feature without serial",
			body:   `{"items":[{"id":"feature-parallax"}],"email":"jane@example.com"}`,
			status: http.StatusBadRequest,
			code:   "missing_required_field",
		},
		{
			name:   "malformed email",
			body:   `{"items":[{"id":"dp-mini-base"}],"email":"jane"}`,
			status: http.StatusUnprocessableEntity,
			code:   "validation_error",
		},
		{
			name:   "client supplied amount is rejected",
			body:   `{"items":[{"id":"dp-mini-base","price":1}],"email":"jane@example.com"}`,
			status: http.StatusBadRequest,
			code:   "bad_request",
		},
		{
			name:   "malformed json",
			body:   `{"items":`,
			status: http.StatusBadRequest,
			code:   "bad_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil)

			w, env := f.do(t, http.MethodPost, "/create-checkout-session", tt.body, nil)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			f.provider.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
		})
	}

	t.Run("validation details name the field", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)

		_, env := f.do(t, http.MethodPost, "/create-checkout-session",
			`{"items":[{"id":"dp-mini-base","quantity":5000}],"email":"jane@example.com","serial":"bad serial"}`, nil)

		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "items[0].quantity")
		assert.Contains(t, env.Error.Details, "serial")
	})

	t.Run("provider rejection keeps its status", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.provider.On("CreateCheckout", mock.Anything, mock.Anything).
			Return(nil, &checkout.BoundaryError{StatusCode: http.StatusConflict, Message: "price too low"}).Once()

		w, env := f.do(t, http.MethodPost, "/create-checkout-session",
			`{"items":[{"id":"dp-mini-base"}],"email":"jane@example.com"}`, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "payment_provider_error", env.Error.Code)
		assert.Contains(t, env.Error.Message, "price too low")
	})

	t.Run("provider outage is a bad gateway", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.provider.On("CreateCheckout", mock.Anything, mock.Anything).
			Return(nil, errors.New("dial tcp: connection refused")).Once()

		w, env := f.do(t, http.MethodPost, "/create-checkout-session",
			`{"items":[{"id":"dp-mini-base"}],"email":"jane@example.com"}`, nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		require.NotNil(t, env.Error)
		assert.NotContains(t, env.Error.Message, "connection refused")
	})
}

func TestQuote(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	mini, _ := f.engine.Catalog().Product("dp-mini-base")
	parallax, _ := f.engine.Catalog().Product("feature-parallax")

	w, env := f.do(t, http.MethodPost, "/quote",
		`{"items":[{"id":"dp-mini-base","options":{"care":"basic"}},{"id":"feature-parallax","quantity":2}]}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var q struct {
		Currency string `json:"currency"`
		Total    int64  `json:"total"`
		Lines    []struct {
			ID     string `json:"id"`
			Amount int64  `json:"amount"`
		} `json:"lines"`
		Features []string `json:"features"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, "EUR", q.Currency)
	require.Len(t, q.Lines, 2)
	assert.Equal(t, mini.Price+29000, q.Lines[0].Amount)
	assert.Equal(t, 2*parallax.Price, q.Lines[1].Amount)
	assert.Equal(t, mini.Price+29000+2*parallax.Price, q.Total)
	assert.Equal(t, []string{"parallax"}, q.Features)

	w, env = f.do(t, http.MethodPost, "/quote", `{"items":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "empty_cart", env.Error.Code)

	f.provider.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	w, env := f.do(t, http.MethodGet, "/catalog", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var c struct {
		Currency string `json:"currency"`
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, "EUR", c.Currency)
	assert.Len(t, c.Products, len(f.engine.Catalog().Products))
}

func TestPaddleWebhook(t *testing.T) {
	t.Parallel()

	const payload = `{"event_type":"transaction.completed"}`

	t.Run("activates the license", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.provider.On("ParseWebhook", mock.Anything, []byte(payload), "ts=1;h1=abc").Return(&checkout.Event{
			ID:         "evt_1",
			Type:       checkout.EventTransactionCompleted,
			OccurredAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			Metadata:   map[string]string{checkout.MetaSerial: "DP-0042", checkout.MetaFeatures: "parallax"},
		}, nil).Once()

		w, _ := f.do(t, http.MethodPost, "/webhooks/paddle", payload,
			map[string]string{storefront.PaddleSignatureHeader: "ts=1;h1=abc"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, env := f.do(t, http.MethodGet, "/licenses/dp-0042", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		assert.Equal(t, "DP-0042", rec["serial"])
		assert.Equal(t, "valid", rec["status"])
		assert.Equal(t, "2024-03-10", rec["activation_date"])
		assert.Equal(t, "2025-03-10", rec["expiration_date"])
		assert.Equal(t, []any{"parallax"}, rec["features"])
	})

	t.Run("bad signature changes nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, "forged").
			Return(nil, fmt.Errorf("%w: h1 mismatch for secret pdl_ntfset", checkout.ErrSignatureVerification)).Once()

		w, env := f.do(t, http.MethodPost, "/webhooks/paddle", payload,
			map[string]string{storefront.PaddleSignatureHeader: "forged"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "bad_request", env.Error.Code)
		assert.NotContains(t, env.Error.Message, "pdl_ntfset")
		assert.Zero(t, f.store.Len())
	})

	t.Run("persist failure asks for redelivery", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, failingStorage{})
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).Return(&checkout.Event{
			ID:       "evt_2",
			Type:     checkout.EventTransactionCompleted,
			Metadata: map[string]string{checkout.MetaSerial: "DP-0043"},
		}, nil).Once()

		w, env := f.do(t, http.MethodPost, "/webhooks/paddle", payload,
			map[string]string{storefront.PaddleSignatureHeader: "ts=1;h1=abc"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "internal_server_error", env.Error.Code)
		_, err := f.store.Get("DP-0043")
		require.ErrorIs(t, err, license.ErrNotFound)
	})

	t.Run("payment for a revoked license is acknowledged", func(t *testing.T) {
		t.Parallel()
		storage := blob.NewMemoryStorage()
		require.NoError(t, storage.Write(context.Background(), "licenses.csv",
			[]byte("serial,status,activation_date,expiration_date,parallax\nDP-0044,revoked,2024-01-10,2025-01-10,false\n")))
		f := newFixture(t, storage)
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).Return(&checkout.Event{
			ID:       "evt_4",
			Type:     checkout.EventTransactionCompleted,
			Metadata: map[string]string{checkout.MetaSerial: "DP-0044", checkout.MetaFeatures: "parallax"},
		}, nil).Once()

		w, _ := f.do(t, http.MethodPost, "/webhooks/paddle", payload, nil)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

		rec, err := f.store.Get("DP-0044")
		require.NoError(t, err)
		assert.Equal(t, license.StatusRevoked, rec.Status)
		assert.False(t, rec.Has("parallax"))
	})

	t.Run("other events are acknowledged", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(&checkout.Event{ID: "evt_3", Type: "transaction.created"}, nil).Once()

		w, _ := f.do(t, http.MethodPost, "/webhooks/paddle", payload, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, f.store.Len())
	})
}

func TestGetLicense_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	w, env := f.do(t, http.MethodGet, "/licenses/DP-9999", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>DP</h1>"), 0o600))

	errDown := errors.New("down")
	f := newFixture(t, nil,
		storefront.WithStaticDir(dir),
		storefront.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("configurator_license_activations_total 0\n"))
		})),
		storefront.WithReadinessCheck("store", func(context.Context) error { return errDown }),
	)

	w, _ := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, w.Body.String(), "configurator_license_activations_total")

	w, _ = f.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>DP</h1>")
}

func TestRouting_JSONFallbacks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	w, env := f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/quote", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "method_not_allowed", env.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported_media_type")
}

func TestMapError(t *testing.T) {
	t.Parallel()

	unknown := errors.New("boom")
	assert.Equal(t, unknown, storefront.MapError(unknown))

	mapped := storefront.MapError(fmt.Errorf("items[0]: %w", pricing.ErrInvalidProduct))
	assert.ErrorIs(t, mapped, storefront.ErrInvalidProduct)
	assert.ErrorIs(t, mapped, pricing.ErrInvalidProduct)

	mapped = storefront.MapError(errors.Join(license.ErrPersist, unknown))
	assert.ErrorIs(t, mapped, license.ErrPersist)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	f := newFixture(t, nil, storefront.WithRateLimiter(bucket))
	body := `{"items":[{"id":"dp-mini-base"}]}`

	w, _ := f.do(t, http.MethodPost, "/quote", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := f.do(t, http.MethodPost, "/quote", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "rate_limited", env.Error.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w, _ = f.do(t, http.MethodGet, "/catalog", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
