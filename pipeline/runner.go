package pipeline

import (
	"context"

	"github.com/hupe1980/pandora/blobstore"
	"github.com/hupe1980/pandora/config"
	"github.com/hupe1980/pandora/resource"
)

// Runner executes the jobs enabled in a configuration against one store.
type Runner struct {
	store blobstore.Store
	opts  []Option
}

// NewRunner creates a Runner. opts apply to every job it runs.
func NewRunner(store blobstore.Store, opts ...Option) *Runner {
	return &Runner{store: store, opts: opts}
}

// NewRunnerFromConfig opens the configured store and derives the logger,
// resource limits and compression from cfg. Extra opts are applied last.
func NewRunnerFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Runner, error) {
	logger := cfg.Log.Logger()

	store, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	rc := resource.NewController(resource.Config{
		MaxWorkers:         int64(cfg.Workers.Max),
		MemoryLimitBytes:   cfg.Workers.MemoryLimitBytes,
		IOLimitBytesPerSec: cfg.Workers.IOLimitBytesPerSec,
	})

	base := []Option{
		WithLogger(logger),
		WithResources(rc),
		WithCompression(cfg.Storage.Compression),
	}
	return NewRunner(store, append(base, opts...)...), nil
}

// Store returns the store the runner works on.
func (r *Runner) Store() blobstore.Store { return r.store }

// Run executes the enabled jobs in workflow order: build, sample, project,
// reduce. It stops at the first job that returns an error and returns the
// reports of the jobs that completed.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) ([]*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newOptions(r.opts).logger
	var reports []*Report

	step := func(job string, run func() (*Report, error)) error {
		logger.InfoContext(ctx, "job started", "job", job)
		report, err := run()
		if err != nil {
			logger.ErrorContext(ctx, "job failed", "job", job, "error", err)
			return err
		}
		reports = append(reports, report)
		return nil
	}

	if job := cfg.Build; job != nil {
		if err := step(JobBuild, func() (*Report, error) { return Build(ctx, r.store, *job, r.opts...) }); err != nil {
			return reports, err
		}
	}
	if job := cfg.Sample; job != nil {
		if err := step(JobSample, func() (*Report, error) { return Sample(ctx, r.store, *job, r.opts...) }); err != nil {
			return reports, err
		}
	}
	if job := cfg.Project; job != nil {
		if err := step(JobProject, func() (*Report, error) { return Project(ctx, r.store, *job, r.opts...) }); err != nil {
			return reports, err
		}
	}
	if job := cfg.Reduce; job != nil {
		if err := step(JobReduce, func() (*Report, error) { return Reduce(ctx, r.store, *job, r.opts...) }); err != nil {
			return reports, err
		}
	}

	return reports, nil
}
