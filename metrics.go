package ringlog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a logger's counters as Prometheus metrics. It reads
// the same atomic counters that back GetStats, so registering it adds no
// overhead to the logging path.
//
// Example:
//
//	prometheus.MustRegister(ringlog.NewCollector(logger, "myapp"))
type Collector struct {
	logger *Logger

	processed   *prometheus.Desc
	dropped     *prometheus.Desc
	writeErrors *prometheus.Desc
	queueDepth  *prometheus.Desc
}

// NewCollector creates a Collector for logger. namespace prefixes the
// metric names and may be empty.
func NewCollector(logger *Logger, namespace string) *Collector {
	return &Collector{
		logger: logger,
		processed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ringlog", "processed_total"),
			"Total number of log records written to the sinks.",
			nil, nil,
		),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ringlog", "dropped_total"),
			"Total number of log records dropped on the producer path.",
			nil, nil,
		),
		writeErrors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ringlog", "write_errors_total"),
			"Total number of sink write failures.",
			nil, nil,
		),
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ringlog", "queue_depth"),
			"Snapshot of log records awaiting drain.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.processed
	ch <- c.dropped
	ch <- c.writeErrors
	ch <- c.queueDepth
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.logger.GetStats()
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(stats.Processed))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(stats.Dropped))
	ch <- prometheus.MustNewConstMetric(c.writeErrors, prometheus.CounterValue, float64(stats.WriteErrors))
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(stats.QueueDepth))
}
