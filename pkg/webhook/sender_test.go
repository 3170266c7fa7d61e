package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpbiotech/configurator/pkg/webhook"
)

func fastSender(opts ...webhook.Option) *webhook.Sender {
	return webhook.NewSender(append([]webhook.Option{
		webhook.WithBackoff(time.Millisecond, 5*time.Millisecond),
		webhook.WithTimeout(time.Second),
	}, opts...)...)
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("signed delivery", func(t *testing.T) {
		t.Parallel()

		var (
			gotEvent webhook.Event
			verified error
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			sig, err := webhook.SignatureFromHeader(r.Header)
			if err == nil {
				err = webhook.Verify("s3cret", body, sig, time.Minute)
			}
			verified = err
			_ = json.Unmarshal(body, &gotEvent)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "yes", r.Header.Get("X-Extra"))
			w.WriteHeader(http.StatusNoContent)
		}))
		t.Cleanup(srv.Close)

		var delivery webhook.Delivery
		sender := fastSender(
			webhook.WithSecret("s3cret"),
			webhook.WithHeader("X-Extra", "yes"),
			webhook.WithOnDelivery(func(d webhook.Delivery) { delivery = d }),
		)
		event := webhook.NewEvent("license.activated", map[string]string{"serial": "AB-12"})

		require.NoError(t, sender.Send(context.Background(), srv.URL, event))
		require.NoError(t, verified)
		assert.Equal(t, event.ID, gotEvent.ID)
		assert.Equal(t, "license.activated", gotEvent.Type)
		assert.Equal(t, 1, delivery.Attempts)
		assert.Equal(t, http.StatusNoContent, delivery.StatusCode)
		assert.NoError(t, delivery.Err)
	})

	t.Run("retries server errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		err := fastSender(webhook.WithMaxRetries(3)).Send(context.Background(), srv.URL, webhook.NewEvent("t", nil))
		require.NoError(t, err)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		err := fastSender(webhook.WithMaxRetries(2)).Send(context.Background(), srv.URL, webhook.NewEvent("t", nil))
		require.ErrorIs(t, err, webhook.ErrDeliveryFailed)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("client errors are permanent", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		t.Cleanup(srv.Close)

		err := fastSender(webhook.WithMaxRetries(5)).Send(context.Background(), srv.URL, webhook.NewEvent("t", nil))
		require.ErrorIs(t, err, webhook.ErrPermanentFailure)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()

		sender := fastSender()
		for _, u := range []string{"", "ftp://example.com", "http://"} {
			require.ErrorIs(t, sender.Send(context.Background(), u, webhook.NewEvent("t", nil)), webhook.ErrInvalidURL, u)
		}
	})

	t.Run("open circuit short-circuits", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		cb := webhook.NewCircuitBreaker(webhook.BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Hour})
		sender := fastSender(webhook.WithMaxRetries(0), webhook.WithCircuitBreaker(cb))

		for range 2 {
			require.ErrorIs(t, sender.Send(context.Background(), srv.URL, webhook.NewEvent("t", nil)), webhook.ErrDeliveryFailed)
		}
		assert.Equal(t, webhook.CircuitOpen, cb.State())

		err := sender.Send(context.Background(), srv.URL, webhook.NewEvent("t", nil))
		require.ErrorIs(t, err, webhook.ErrCircuitOpen)
		assert.EqualValues(t, 2, calls.Load())
	})
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens, probes and closes", func(t *testing.T) {
		t.Parallel()
		cb := webhook.NewCircuitBreaker(webhook.BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: 10 * time.Millisecond})
		assert.Equal(t, "closed", cb.State().String())
		assert.True(t, cb.Allow())

		cb.Done(errors.New("boom"))
		assert.Equal(t, webhook.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())

		require.Eventually(t, cb.Allow, time.Second, 5*time.Millisecond)
		assert.Equal(t, webhook.CircuitHalfOpen, cb.State())

		cb.Done(nil)
		assert.Equal(t, webhook.CircuitHalfOpen, cb.State())
		cb.Done(nil)
		assert.Equal(t, webhook.CircuitClosed, cb.State())
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		t.Parallel()
		cb := webhook.NewCircuitBreaker(webhook.BreakerConfig{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})
		cb.Done(errors.New("boom"))
		require.Eventually(t, cb.Allow, time.Second, 5*time.Millisecond)

		cb.Done(errors.New("still down"))
		assert.Equal(t, webhook.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets the failure streak", func(t *testing.T) {
		t.Parallel()
		cb := webhook.NewCircuitBreaker(webhook.BreakerConfig{FailureThreshold: 2})
		cb.Done(errors.New("a"))
		cb.Done(nil)
		cb.Done(errors.New("b"))
		assert.Equal(t, webhook.CircuitClosed, cb.State())
		assert.Equal(t, "unknown", webhook.CircuitState(7).String())
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"1"}`)
	sig, err := webhook.Sign("secret", payload, "1", time.Now())
	require.NoError(t, err)

	require.NoError(t, webhook.Verify("secret", payload, sig, time.Minute))
	require.ErrorIs(t, webhook.Verify("other", payload, sig, time.Minute), webhook.ErrInvalidSignature)
	require.ErrorIs(t, webhook.Verify("secret", []byte(`{"id":"2"}`), sig, time.Minute), webhook.ErrInvalidSignature)

	old, err := webhook.Sign("secret", payload, "1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.ErrorIs(t, webhook.Verify("secret", payload, old, time.Minute), webhook.ErrInvalidSignature)
	require.NoError(t, webhook.Verify("secret", payload, old, 0))

	_, err = webhook.Sign("", payload, "1", time.Now())
	require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)

	_, err = webhook.SignatureFromHeader(http.Header{})
	require.ErrorIs(t, err, webhook.ErrInvalidSignature)
}
