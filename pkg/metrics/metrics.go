package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "configurator"

// Manager owns the metrics registry of the service. It implements
// checkout.Observer.
type Manager struct {
	registry *prometheus.Registry

	checkouts        *prometheus.CounterVec
	checkoutAmount   *prometheus.CounterVec
	checkoutFailures *prometheus.CounterVec
	webhookRejects   *prometheus.CounterVec
	activations      prometheus.Counter
	flushDuration    *prometheus.HistogramVec
}

// NewManager creates a registry with the Go and process collectors plus the
// service metrics. Extra collectors are registered as well.
func NewManager(extra ...prometheus.Collector) *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions created at the payment provider.",
		}, []string{"currency"}),
		checkoutAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_amount_minor_total",
			Help:      "Sum of quoted totals of created checkout sessions, in minor units.",
		}, []string{"currency"}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkout requests that did not produce a session.",
		}, []string{"reason"}),
		webhookRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_rejections_total",
			Help:      "Payment webhooks rejected before reaching the license store.",
		}, []string{"reason"}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_activations_total",
			Help:      "Licenses activated and persisted.",
		}),
		flushDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "license_flush_duration_seconds",
			Help:      "Latency of license snapshot writes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkouts,
		m.checkoutAmount,
		m.checkoutFailures,
		m.webhookRejects,
		m.activations,
		m.flushDuration,
	)
	m.registry.MustRegister(extra...)

	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Manager) CheckoutCreated(amount int64, currency string) {
	m.checkouts.WithLabelValues(currency).Inc()
	m.checkoutAmount.WithLabelValues(currency).Add(float64(amount))
}

func (m *Manager) CheckoutFailed(reason string) {
	m.checkoutFailures.WithLabelValues(reason).Inc()
}

func (m *Manager) WebhookRejected(reason string) {
	m.webhookRejects.WithLabelValues(reason).Inc()
}

func (m *Manager) LicenseActivated() {
	m.activations.Inc()
}

// ObserveFlush records one snapshot write. It matches license.WithFlushObserver.
func (m *Manager) ObserveFlush(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.flushDuration.WithLabelValues(result).Observe(d.Seconds())
}
