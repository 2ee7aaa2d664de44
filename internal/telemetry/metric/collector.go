package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CountFunc reports the number of stored and active sessions.
type CountFunc func(ctx context.Context) (total, active int, err error)

// Collector reports stored session counts at scrape time.
type Collector struct {
	count   CountFunc
	timeout time.Duration

	stored *prometheus.Desc
	active *prometheus.Desc
	up     *prometheus.Desc
}

// NewCollector creates a collector backed by count.
func NewCollector(count CountFunc) *Collector {
	return &Collector{
		count:   count,
		timeout: 5 * time.Second,
		stored: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "stored"),
			"Number of sessions held by the store, active and revoked",
			nil, nil,
		),
		active: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "active"),
			"Number of active sessions held by the store",
			nil, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "up"),
			"Whether the last scrape could read the session store",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stored
	ch <- c.active
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	total, active, err := c.count(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.stored, prometheus.GaugeValue, float64(total))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(active))
}
