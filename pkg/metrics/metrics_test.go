package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/metrics"
)

type staticSource []license.Record

func (s staticSource) All() []license.Record { return s }

func TestManager(t *testing.T) {
	t.Parallel()

	m := metrics.NewManager()
	m.CheckoutCreated(299000, "EUR")
	m.CheckoutCreated(1000, "EUR")
	m.CheckoutFailed("invalid_product")
	m.WebhookRejected("signature")
	m.LicenseActivated()
	m.ObserveFlush(5*time.Millisecond, nil)
	m.ObserveFlush(time.Second, errors.New("down"))

	expected := `
# HELP configurator_checkout_sessions_total Checkout sessions created at the payment provider.
# TYPE configurator_checkout_sessions_total counter
configurator_checkout_sessions_total{currency="EUR"} 2
# HELP configurator_checkout_amount_minor_total Sum of quoted totals of created checkout sessions, in minor units.
# TYPE configurator_checkout_amount_minor_total counter
configurator_checkout_amount_minor_total{currency="EUR"} 300000
# HELP configurator_checkout_failures_total Checkout requests that did not produce a session.
# TYPE configurator_checkout_failures_total counter
configurator_checkout_failures_total{reason="invalid_product"} 1
# HELP configurator_webhook_rejections_total Payment webhooks rejected before reaching the license store.
# TYPE configurator_webhook_rejections_total counter
configurator_webhook_rejections_total{reason="signature"} 1
# HELP configurator_license_activations_total Licenses activated and persisted.
# TYPE configurator_license_activations_total counter
configurator_license_activations_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"configurator_checkout_sessions_total",
		"configurator_checkout_amount_minor_total",
		"configurator_checkout_failures_total",
		"configurator_webhook_rejections_total",
		"configurator_license_activations_total",
	))

	n, err := testutil.GatherAndCount(m.Registry(), "configurator_license_flush_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLicenseCollector(t *testing.T) {
	t.Parallel()

	c := metrics.NewLicenseCollector(staticSource{
		{Serial: "A", Status: license.StatusValid},
		{Serial: "B", Status: license.StatusValid},
		{Serial: "C", Status: license.StatusRevoked},
	})

	expected := `
# HELP configurator_licenses Licenses in the store by status.
# TYPE configurator_licenses gauge
configurator_licenses{status="expired"} 0
configurator_licenses{status="not-active"} 0
configurator_licenses{status="revoked"} 1
configurator_licenses{status="valid"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestManager_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.NewManager(metrics.NewLicenseCollector(staticSource{}))
	m.LicenseActivated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "configurator_license_activations_total 1")
	assert.Contains(t, rec.Body.String(), "configurator_licenses{status=\"valid\"} 0")
}
