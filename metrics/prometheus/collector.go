// Package prometheus exports pipeline metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	collector, err := pandoraprom.NewCollector(reg, "pandora")
//	runner := pipeline.NewRunner(store, pipeline.WithMetrics(collector))
package prometheus

import (
	"time"

	"github.com/hupe1980/pandora"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements pandora.MetricsCollector with Prometheus counters and
// histograms labelled by job.
type Collector struct {
	items        *prometheus.CounterVec
	itemErrors   *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec
	batches      *prometheus.CounterVec
	batchItems   *prometheus.CounterVec
	batchFailed  *prometheus.CounterVec
	batchSeconds *prometheus.HistogramVec
}

// NewCollector creates the metrics under namespace and registers them on reg.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total number of items processed",
			},
			[]string{"job"},
		),
		itemErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "item_errors_total",
				Help:      "Total number of items that failed",
			},
			[]string{"job"},
		),
		itemDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "item_duration_seconds",
				Help:      "Per-item processing latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of finished batch jobs",
			},
			[]string{"job"},
		),
		batchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_items_total",
				Help:      "Total number of items attempted by finished batch jobs",
			},
			[]string{"job"},
		),
		batchFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_failed_total",
				Help:      "Total number of items failed by finished batch jobs",
			},
			[]string{"job"},
		),
		batchSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Batch job wall time",
				Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
			},
			[]string{"job"},
		),
	}

	for _, m := range []prometheus.Collector{
		c.items, c.itemErrors, c.itemDuration,
		c.batches, c.batchItems, c.batchFailed, c.batchSeconds,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordItem implements pandora.MetricsCollector.
func (c *Collector) RecordItem(job string, duration time.Duration, err error) {
	c.items.WithLabelValues(job).Inc()
	c.itemDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		c.itemErrors.WithLabelValues(job).Inc()
	}
}

// RecordBatch implements pandora.MetricsCollector.
func (c *Collector) RecordBatch(job string, count, failed int, duration time.Duration) {
	c.batches.WithLabelValues(job).Inc()
	c.batchItems.WithLabelValues(job).Add(float64(count))
	c.batchFailed.WithLabelValues(job).Add(float64(failed))
	c.batchSeconds.WithLabelValues(job).Observe(duration.Seconds())
}

var _ pandora.MetricsCollector = (*Collector)(nil)
