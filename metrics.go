package pandora

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting pipeline metrics.
// Implement this interface to integrate with monitoring systems; see
// metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordItem is called after each item (file) of a batch job.
	// duration is the time spent on the item, err is nil if successful.
	RecordItem(job string, duration time.Duration, err error)

	// RecordBatch is called once a batch job finishes.
	// count is the number of items attempted, failed is the number that failed.
	RecordBatch(job string, count, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordItem(string, time.Duration, error)     {}
func (NoopMetricsCollector) RecordBatch(string, int, int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Counters are aggregated across jobs.
type BasicMetricsCollector struct {
	ItemCount      atomic.Int64
	ItemErrors     atomic.Int64
	ItemTotalNanos atomic.Int64
	BatchCount     atomic.Int64
	BatchItems     atomic.Int64
	BatchFailed    atomic.Int64
}

// RecordItem implements MetricsCollector.
func (b *BasicMetricsCollector) RecordItem(_ string, duration time.Duration, err error) {
	b.ItemCount.Add(1)
	b.ItemTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ItemErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(_ string, count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchItems.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ItemCount:    b.ItemCount.Load(),
		ItemErrors:   b.ItemErrors.Load(),
		ItemAvgNanos: b.getAvgItemNanos(),
		BatchCount:   b.BatchCount.Load(),
		BatchItems:   b.BatchItems.Load(),
		BatchFailed:  b.BatchFailed.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgItemNanos() int64 {
	count := b.ItemCount.Load()
	if count == 0 {
		return 0
	}
	return b.ItemTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ItemCount    int64
	ItemErrors   int64
	ItemAvgNanos int64
	BatchCount   int64
	BatchItems   int64
	BatchFailed  int64
}
