package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/hupe1980/pandora/aggregate"
	"github.com/hupe1980/pandora/blobstore"
	"github.com/hupe1980/pandora/codebook"
	"github.com/hupe1980/pandora/codec"
	"github.com/hupe1980/pandora/config"
	"github.com/hupe1980/pandora/projection"
	"github.com/hupe1980/pandora/sample"
)

// Job names used in logs, metrics and reports.
const (
	JobBuild   = "build"
	JobSample  = "sample"
	JobProject = "project"
	JobReduce  = "reduce"
)

type (
	// BuildJob aggregates descriptor files into global vectors.
	BuildJob = config.BuildConfig

	// SampleJob draws a training set of rows from many files.
	SampleJob = config.SampleConfig

	// ProjectJob fits a projection space on one vector per file.
	ProjectJob = config.ProjectConfig

	// ReduceJob projects vector files onto leading components.
	ReduceJob = config.ReduceConfig
)

// Build aggregates every descriptor blob under job.Input into a vector blob
// named <job.Output>/<stem>.<method>. Codebooks are loaded from
// job.Vocabularies in order; any codebook failure aborts the job.
func Build(ctx context.Context, store blobstore.Store, job BuildJob, opts ...Option) (*Report, error) {
	o := newOptions(opts)

	codebooks := make([]*codebook.Codebook, 0, len(job.Vocabularies))
	for _, name := range job.Vocabularies {
		centroids, err := o.readMatrix(ctx, store, name)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary %s: %w", name, err)
		}
		cb, err := codebook.New(centroids)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary %s: %w", name, err)
		}
		codebooks = append(codebooks, cb)
	}

	agg, err := aggregate.New(aggregate.Config{Method: job.Method, Normalize: job.Normalize}, codebooks...)
	if err != nil {
		return nil, err
	}

	names, err := listInputs(ctx, store, job.Input, job.Extension)
	if err != nil {
		return nil, err
	}

	log := o.logger.WithJob(JobBuild)
	log.LogConfig(ctx, "method", agg.Method())
	log.LogConfig(ctx, "vocabularies", len(codebooks))
	log.LogConfig(ctx, "size", agg.Size())
	log.LogConfig(ctx, "files", len(names))

	rec, err := o.forEach(ctx, JobBuild, names, func(ctx context.Context, _ int, name string) (int, int, error) {
		descriptors, err := o.readMatrix(ctx, store, name)
		if err != nil {
			return 0, 0, err
		}

		vector, err := agg.Aggregate(descriptors)
		if err != nil {
			return 0, 0, err
		}

		out := path.Join(job.Output, stem(name)+"."+agg.Method().String())
		if _, err := o.writeMatrix(ctx, store, out, [][]float64{vector}); err != nil {
			return 0, 0, err
		}
		return len(descriptors), len(vector), nil
	})
	if err != nil {
		return nil, err
	}

	return o.finish(ctx, rec.report(JobBuild)), nil
}

// Sample draws rows from every blob under job.Input with one random
// permutation and writes them to job.Output. Files are visited sequentially
// in sorted order so a seed reproduces the same sample.
func Sample(ctx context.Context, store blobstore.Store, job SampleJob, opts ...Option) (*Report, error) {
	o := newOptions(opts)

	perm, err := sample.NewRandomPermutation(job.Ratio, job.Seed)
	if err != nil {
		return nil, err
	}

	names, err := listInputs(ctx, store, job.Input, job.Extension)
	if err != nil {
		return nil, err
	}

	log := o.logger.WithJob(JobSample)
	log.LogConfig(ctx, "ratio", job.Ratio)
	log.LogConfig(ctx, "seed", job.Seed)
	log.LogConfig(ctx, "files", len(names))

	// The permutation is stateful, so the loop stays on one goroutine.
	sequential := o
	sequential.resources = nil

	var sampled [][]float64
	rec, err := sequential.forEach(ctx, JobSample, names, func(ctx context.Context, _ int, name string) (int, int, error) {
		rows, err := o.readMatrix(ctx, store, name)
		if err != nil {
			return 0, 0, err
		}
		picked := perm.Sample(rows)
		sampled = append(sampled, picked...)
		return len(rows), len(picked), nil
	})
	if err != nil {
		return nil, err
	}

	artifact, err := o.writeMatrix(ctx, store, job.Output, sampled)
	if err != nil {
		return nil, err
	}
	log.LogConfig(ctx, "sampled", len(sampled))

	report := rec.report(JobSample)
	report.Artifact = artifact
	return o.finish(ctx, report), nil
}

// Project reads the first vector of every blob under job.Input, samples them
// with job.Ratio and job.Seed, fits a projection space and writes it to
// job.Output. Unreadable files are skipped; a failed fit aborts the job.
func Project(ctx context.Context, store blobstore.Store, job ProjectJob, opts ...Option) (*Report, error) {
	o := newOptions(opts)

	perm, err := sample.NewRandomPermutation(job.Ratio, job.Seed)
	if err != nil {
		return nil, err
	}

	names, err := listInputs(ctx, store, job.Input, job.Extension)
	if err != nil {
		return nil, err
	}

	log := o.logger.WithJob(JobProject)
	log.LogConfig(ctx, "ratio", job.Ratio)
	log.LogConfig(ctx, "whiten", job.Whiten)
	log.LogConfig(ctx, "compact", job.Compact)
	log.LogConfig(ctx, "files", len(names))

	vectors := make([][]float64, len(names))
	rec, err := o.forEach(ctx, JobProject, names, func(ctx context.Context, i int, name string) (int, int, error) {
		v, err := o.readVector(ctx, store, name)
		if err != nil {
			return 0, 0, err
		}
		vectors[i] = v
		return 1, len(v), nil
	})
	if err != nil {
		return nil, err
	}

	loaded := make([][]float64, 0, len(vectors))
	for i, v := range vectors {
		if !rec.isFailed(i) {
			loaded = append(loaded, v)
		}
	}

	training := perm.Sample(loaded)
	log.LogConfig(ctx, "training", len(training))

	space, err := projection.Fit(training, projection.FitConfig{Whiten: job.Whiten, Compact: job.Compact})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := projection.WriteSpace(&buf, space); err != nil {
		return nil, err
	}
	artifact, err := o.put(ctx, store, job.Output, buf.Bytes())
	if err != nil {
		return nil, err
	}
	log.LogConfig(ctx, "rank", space.Rank())

	report := rec.report(JobProject)
	report.Artifact = artifact
	return o.finish(ctx, report), nil
}

// Reduce loads the projection artifact job.Projection, keeps
// job.Components leading components and projects the first vector of every
// blob under job.Input to a blob of the same name under job.Output. The
// truncated subspace is written to job.Subspace when set.
func Reduce(ctx context.Context, store blobstore.Store, job ReduceJob, opts ...Option) (*Report, error) {
	o := newOptions(opts)

	data, release, err := o.get(ctx, store, job.Projection)
	if err != nil {
		return nil, fmt.Errorf("load projection %s: %w", job.Projection, err)
	}
	reducer, err := projection.LoadReducer(bytes.NewReader(data), job.Components, job.Whiten)
	release()
	if err != nil {
		return nil, fmt.Errorf("load projection %s: %w", job.Projection, err)
	}

	log := o.logger.WithJob(JobReduce)
	log.LogConfig(ctx, "components", reducer.Components())
	log.LogConfig(ctx, "whiten", reducer.Whiten())

	var artifact string
	if job.Subspace != "" {
		var buf bytes.Buffer
		if err := projection.WriteBasis(&buf, reducer.Mean(), reducer.Subspace()); err != nil {
			return nil, err
		}
		if artifact, err = o.put(ctx, store, job.Subspace, buf.Bytes()); err != nil {
			return nil, err
		}
	}

	names, err := listInputs(ctx, store, job.Input, job.Extension)
	if err != nil {
		return nil, err
	}
	log.LogConfig(ctx, "files", len(names))

	rec, err := o.forEach(ctx, JobReduce, names, func(ctx context.Context, _ int, name string) (int, int, error) {
		v, err := o.readVector(ctx, store, name)
		if err != nil {
			return 0, 0, err
		}

		reduced, err := reducer.Reduce(v)
		if err != nil {
			return 0, 0, err
		}

		out := path.Join(job.Output, path.Base(codec.StripCompressionExt(name)))
		if _, err := o.writeMatrix(ctx, store, out, [][]float64{reduced}); err != nil {
			return 0, 0, err
		}
		return 1, len(reduced), nil
	})
	if err != nil {
		return nil, err
	}

	report := rec.report(JobReduce)
	report.Artifact = artifact
	return o.finish(ctx, report), nil
}
