// Package pipeline runs the batch jobs that turn per-image descriptor files
// into compact global vectors.
//
// The four jobs mirror the offline workflow:
//
//   - Build aggregates every descriptor file into one vector (BOW, VLAD or
//     VLAT) against one or more codebooks.
//   - Sample draws a random training subset of rows from many files.
//   - Project fits a PCA projection on a sample of vectors.
//   - Reduce projects every vector onto the leading components.
//
// All jobs read and write through a blobstore.Store, so the same run works
// against a local directory, memory, S3 or MinIO. A file that fails is
// logged and recorded in the job's Report; the job keeps going. Errors that
// invalidate the whole job (missing codebook, failed fit) are returned.
package pipeline

import (
	"bytes"
	"context"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/blobstore"
	"github.com/hupe1980/pandora/codec"
	"github.com/hupe1980/pandora/resource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum delay between progress log lines.
const DefaultProgressInterval = 2 * time.Second

// Option configures job execution.
type Option func(*options)

type options struct {
	logger      *pandora.Logger
	metrics     pandora.MetricsCollector
	resources   *resource.Controller
	compression codec.Compression
	progress    time.Duration
}

func newOptions(optFns []Option) options {
	o := options{
		logger:   pandora.NoopLogger(),
		metrics:  pandora.NoopMetricsCollector{},
		progress: DefaultProgressInterval,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *pandora.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector. Default: no-op.
func WithMetrics(m pandora.MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithResources bounds workers, memory and read throughput. Default: one
// worker and no limits.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) { o.resources = rc }
}

// WithCompression frames every written artifact and appends the matching
// extension to its name. Inputs are decompressed by extension regardless.
func WithCompression(c codec.Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithProgressInterval sets the minimum delay between progress log lines.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) { o.progress = d }
}

// listInputs returns the sorted blobs under prefix ending in ext, plain or
// compressed.
func listInputs(ctx context.Context, store blobstore.Store, prefix, ext string) ([]string, error) {
	return blobstore.ListSuffix(ctx, store, prefix, ext, ext+".lz4", ext+".zst", ext+".zstd")
}

// stem returns the base name of a blob without its compression and content
// extensions.
func stem(name string) string {
	base := path.Base(codec.StripCompressionExt(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

// get fetches a blob and returns its decompressed text. The raw size is
// charged against the memory limit until release is called.
func (o *options) get(ctx context.Context, store blobstore.Store, name string) (data []byte, release func(), err error) {
	raw, err := store.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	size := int64(len(raw))
	if err := o.resources.AcquireMemory(ctx, size); err != nil {
		return nil, nil, err
	}
	release = func() { o.resources.ReleaseMemory(size) }

	r, err := codec.NewReader(resource.NewRateLimitedReader(ctx, bytes.NewReader(raw), o.resources), codec.CompressionFromName(name))
	if err != nil {
		release()
		return nil, nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		release()
		return nil, nil, err
	}
	return buf.Bytes(), release, nil
}

func (o *options) readMatrix(ctx context.Context, store blobstore.Store, name string) ([][]float64, error) {
	data, release, err := o.get(ctx, store, name)
	if err != nil {
		return nil, err
	}
	defer release()
	return codec.ReadMatrix(bytes.NewReader(data))
}

func (o *options) readVector(ctx context.Context, store blobstore.Store, name string) ([]float64, error) {
	data, release, err := o.get(ctx, store, name)
	if err != nil {
		return nil, err
	}
	defer release()
	return codec.ReadVector(bytes.NewReader(data))
}

// put compresses data with the configured compression and stores it under
// name plus the compression extension. It returns the stored name.
func (o *options) put(ctx context.Context, store blobstore.Store, name string, data []byte) (string, error) {
	packed, err := codec.Compress(data, o.compression)
	if err != nil {
		return "", err
	}
	name += o.compression.Ext()
	return name, store.Put(ctx, name, packed)
}

func (o *options) writeMatrix(ctx context.Context, store blobstore.Store, name string, rows [][]float64) (string, error) {
	var buf bytes.Buffer
	if err := codec.WriteMatrix(&buf, rows); err != nil {
		return "", err
	}
	return o.put(ctx, store, name, buf.Bytes())
}

// forEach runs fn for every name on the worker pool. Item errors are logged,
// counted and recorded; only cancellation stops the batch.
func (o *options) forEach(ctx context.Context, job string, names []string, fn func(ctx context.Context, i int, name string) (rows, output int, err error)) (*recorder, error) {
	log := o.logger.WithJob(job)
	rec := newRecorder(names)
	progress := rate.Sometimes{First: 1, Interval: o.progress}

	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.resources.Workers())

	for i, name := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := o.resources.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.resources.ReleaseWorker()

			start := time.Now()
			rows, output, err := fn(gctx, i, name)
			o.metrics.RecordItem(job, time.Since(start), err)
			log.LogItem(gctx, name, err)

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rec.fail(i)
			} else {
				rec.succeed(i, rows, output)
			}

			n := int(done.Add(1))
			progress.Do(func() { log.LogProgress(gctx, n, len(names)) })
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// finish logs and records the outcome of a batch.
func (o *options) finish(ctx context.Context, report *Report) *Report {
	log := o.logger.WithJob(report.Job)
	log.LogProgress(ctx, report.Count(), report.Count())
	log.LogSummary(ctx, report.Count(), report.FailedCount(), report.Elapsed)
	o.metrics.RecordBatch(report.Job, report.Count(), report.FailedCount(), report.Elapsed)
	return report
}
