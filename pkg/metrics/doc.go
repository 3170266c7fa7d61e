// Package metrics exposes Prometheus metrics for checkout, webhook and
// license store activity.
package metrics
