package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dpbiotech/configurator/pkg/license"
)

// LicenseSource lists the current license records.
type LicenseSource interface {
	All() []license.Record
}

// LicenseCollector reports the number of licenses per status at scrape time.
type LicenseCollector struct {
	source LicenseSource
	desc   *prometheus.Desc
}

func NewLicenseCollector(source LicenseSource) *LicenseCollector {
	return &LicenseCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "licenses"),
			"Licenses in the store by status.",
			[]string{"status"},
			nil,
		),
	}
}

func (c *LicenseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *LicenseCollector) Collect(ch chan<- prometheus.Metric) {
	counts := map[license.Status]int{
		license.StatusNotActive: 0,
		license.StatusValid:     0,
		license.StatusExpired:   0,
		license.StatusRevoked:   0,
	}
	for _, rec := range c.source.All() {
		counts[rec.Status]++
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), string(status))
	}
}
