package pipeline

import (
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes one per-item quantity over the successful items of a job.
type Stats struct {
	N             int
	Sum           float64
	Mean          float64
	GeometricMean float64
	Min           float64
	Max           float64
}

func summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{
		N:             len(values),
		Sum:           floats.Sum(values),
		Mean:          stat.Mean(values, nil),
		GeometricMean: stat.GeometricMean(values, nil),
		Min:           floats.Min(values),
		Max:           floats.Max(values),
	}
}

// Report describes a finished job.
type Report struct {
	Job string

	// Names lists the items in processing order; bitmap positions index it.
	Names []string

	// Failed holds the indices of items that failed.
	Failed *roaring.Bitmap

	// Rows summarizes the number of input rows per item.
	Rows Stats

	// Output summarizes the output size per item: vector length for build,
	// sampled rows for sample, reduced rows for reduce.
	Output Stats

	// Artifact names the single blob a job writes (sample, project).
	Artifact string

	Elapsed time.Duration
}

// Count returns the number of items attempted.
func (r *Report) Count() int { return len(r.Names) }

// FailedCount returns the number of items that failed.
func (r *Report) FailedCount() int { return int(r.Failed.GetCardinality()) }

// FailedNames returns the names of the failed items in processing order.
func (r *Report) FailedNames() []string {
	out := make([]string, 0, r.FailedCount())
	it := r.Failed.Iterator()
	for it.HasNext() {
		out = append(out, r.Names[it.Next()])
	}
	return out
}

// recorder collects per-item outcomes from concurrent workers.
type recorder struct {
	mu     sync.Mutex
	names  []string
	failed *roaring.Bitmap
	rows   []float64
	output []float64
	start  time.Time
}

func newRecorder(names []string) *recorder {
	return &recorder{
		names:  names,
		failed: roaring.New(),
		rows:   make([]float64, len(names)),
		output: make([]float64, len(names)),
		start:  time.Now(),
	}
}

func (r *recorder) succeed(i, rows, output int) {
	r.mu.Lock()
	r.rows[i] = float64(rows)
	r.output[i] = float64(output)
	r.mu.Unlock()
}

func (r *recorder) fail(i int) {
	r.mu.Lock()
	r.failed.Add(uint32(i))
	r.mu.Unlock()
}

func (r *recorder) isFailed(i int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed.Contains(uint32(i))
}

func (r *recorder) report(job string) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]float64, 0, len(r.names))
	output := make([]float64, 0, len(r.names))
	for i := range r.names {
		if r.failed.Contains(uint32(i)) {
			continue
		}
		rows = append(rows, r.rows[i])
		output = append(output, r.output[i])
	}

	return &Report{
		Job:     job,
		Names:   r.names,
		Failed:  r.failed.Clone(),
		Rows:    summarize(rows),
		Output:  summarize(output),
		Elapsed: time.Since(r.start),
	}
}
