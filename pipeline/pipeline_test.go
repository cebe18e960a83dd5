package pipeline

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/aggregate"
	"github.com/hupe1980/pandora/blobstore"
	"github.com/hupe1980/pandora/codec"
	"github.com/hupe1980/pandora/config"
	"github.com/hupe1980/pandora/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put(t *testing.T, store blobstore.Store, name, content string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), name, []byte(content)))
}

func readVector(t *testing.T, store blobstore.Store, name string) []float64 {
	t.Helper()
	data, err := store.Get(context.Background(), name)
	require.NoError(t, err)
	data, err = codec.Decompress(data, codec.CompressionFromName(name))
	require.NoError(t, err)
	v, err := codec.ReadVector(bytes.NewReader(data))
	require.NoError(t, err)
	return v
}

func descriptorStore(t *testing.T) *blobstore.MemoryStore {
	store := blobstore.NewMemoryStore()
	put(t, store, "vocab/a.txt", "0,0\n10,10\n")
	put(t, store, "desc/img1.sift", "1,1\n9,9\n")
	put(t, store, "desc/img2.sift", "0,1\n")
	put(t, store, "desc/bad.sift", "x,y\n")
	put(t, store, "desc/notes.txt", "ignored\n")
	return store
}

func buildJob() BuildJob {
	return BuildJob{
		Input:        "desc/",
		Extension:    ".sift",
		Method:       aggregate.BOW,
		Normalize:    false,
		Vocabularies: []string{"vocab/a.txt"},
		Output:       "vec",
	}
}

func TestBuild(t *testing.T) {
	store := descriptorStore(t)
	metrics := &pandora.BasicMetricsCollector{}

	report, err := Build(context.Background(), store, buildJob(),
		WithMetrics(metrics),
		WithResources(resource.NewController(resource.Config{MaxWorkers: 2, MemoryLimitBytes: 1 << 20})),
	)
	require.NoError(t, err)

	assert.Equal(t, JobBuild, report.Job)
	assert.Equal(t, 3, report.Count())
	assert.Equal(t, 1, report.FailedCount())
	assert.Equal(t, []string{"desc/bad.sift"}, report.FailedNames())
	assert.Equal(t, 2, report.Rows.N)
	assert.Equal(t, 3.0, report.Rows.Sum)
	assert.Equal(t, 2.0, report.Output.Min)
	assert.Equal(t, 2.0, report.Output.Max)

	assert.Equal(t, []float64{1, 1}, readVector(t, store, "vec/img1.bow"))
	assert.Equal(t, []float64{1, 0}, readVector(t, store, "vec/img2.bow"))
	_, err = store.Get(context.Background(), "vec/bad.bow")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.ItemCount)
	assert.Equal(t, int64(1), stats.ItemErrors)
	assert.Equal(t, int64(1), stats.BatchCount)
	assert.Equal(t, int64(1), stats.BatchFailed)
}

func TestBuildCompressed(t *testing.T) {
	store := descriptorStore(t)
	compressed, err := codec.Compress([]byte("4,4\n"), codec.Zstd)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "desc/img3.sift.zst", compressed))

	report, err := Build(context.Background(), store, buildJob(), WithCompression(codec.LZ4))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Count())

	assert.Equal(t, []float64{1, 0}, readVector(t, store, "vec/img3.bow.lz4"))
	assert.Equal(t, []float64{1, 1}, readVector(t, store, "vec/img1.bow.lz4"))
}

func TestBuildMissingVocabulary(t *testing.T) {
	store := descriptorStore(t)
	job := buildJob()
	job.Vocabularies = append(job.Vocabularies, "vocab/missing.txt")

	_, err := Build(context.Background(), store, job)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, descriptorStore(t), buildJob())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSample(t *testing.T) {
	store := blobstore.NewMemoryStore()
	put(t, store, "vec/a.vlad", "1,1\n2,2\n3,3\n")
	put(t, store, "vec/b.vlad", "4,4\n")
	put(t, store, "vec/c.vlad", "5,5\n6,6\n")

	job := SampleJob{Input: "vec/", Extension: ".vlad", Ratio: 1, Seed: 3, Output: "sample.txt"}
	report, err := Sample(context.Background(), store, job)
	require.NoError(t, err)

	assert.Equal(t, "sample.txt", report.Artifact)
	assert.Equal(t, 6.0, report.Rows.Sum)
	assert.Equal(t, 6.0, report.Output.Sum)

	data, err := store.Get(context.Background(), "sample.txt")
	require.NoError(t, err)
	rows, err := codec.ReadMatrix(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.ElementsMatch(t, [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}, {6, 6}}, rows)
}

func TestSampleDeterministic(t *testing.T) {
	store := blobstore.NewMemoryStore()
	for _, name := range []string{"a", "b", "c", "d"} {
		put(t, store, "vec/"+name+".vlad", "1,2\n3,4\n5,6\n7,8\n9,10\n")
	}

	run := func(out string) []byte {
		job := SampleJob{Input: "vec/", Extension: ".vlad", Ratio: 0.5, Seed: 42, Output: out}
		_, err := Sample(context.Background(), store, job, WithResources(resource.NewController(resource.Config{MaxWorkers: 4})))
		require.NoError(t, err)
		data, err := store.Get(context.Background(), out)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, run("s1.txt"), run("s2.txt"))
}

func TestSampleInvalidRatio(t *testing.T) {
	_, err := Sample(context.Background(), blobstore.NewMemoryStore(), SampleJob{Ratio: 2, Output: "s"})
	assert.ErrorIs(t, err, pandora.ErrInput)
}

func crossStore(t *testing.T) *blobstore.MemoryStore {
	store := blobstore.NewMemoryStore()
	put(t, store, "vec/a.vlad", "2,0\n")
	put(t, store, "vec/b.vlad", "-2,0\n")
	put(t, store, "vec/c.vlad", "0,1\n")
	put(t, store, "vec/d.vlad", "0,-1\n")
	return store
}

func TestProjectAndReduce(t *testing.T) {
	ctx := context.Background()
	store := crossStore(t)
	put(t, store, "vec/broken.vlad", "")

	report, err := Project(ctx, store, ProjectJob{
		Input: "vec/", Extension: ".vlad", Ratio: 1, Seed: 1, Output: "projection.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Count())
	assert.Equal(t, []string{"vec/broken.vlad"}, report.FailedNames())
	assert.Equal(t, "projection.txt", report.Artifact)

	data, err := store.Get(ctx, "projection.txt")
	require.NoError(t, err)
	lines, err := codec.ReadMatrix(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, []float64{0, 0}, lines[0])

	require.NoError(t, store.Delete(ctx, "vec/broken.vlad"))

	report, err = Reduce(ctx, store, ReduceJob{
		Input: "vec/", Extension: ".vlad", Projection: "projection.txt",
		Components: 1, Output: "reduced", Subspace: "subspace.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Count())
	assert.Zero(t, report.FailedCount())
	assert.Equal(t, "subspace.txt", report.Artifact)
	assert.Equal(t, 1.0, report.Output.Max)

	a := readVector(t, store, "reduced/a.vlad")
	require.Len(t, a, 1)
	assert.InDelta(t, 2.0, math.Abs(a[0]), 1e-12)

	c := readVector(t, store, "reduced/c.vlad")
	assert.InDelta(t, 0.0, c[0], 1e-12)

	data, err = store.Get(ctx, "subspace.txt")
	require.NoError(t, err)
	sub, err := codec.ReadMatrix(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, sub, 2)
}

func TestProjectWithoutVectors(t *testing.T) {
	_, err := Project(context.Background(), blobstore.NewMemoryStore(), ProjectJob{
		Input: "vec/", Extension: ".vlad", Ratio: 1, Output: "p.txt",
	})
	assert.ErrorIs(t, err, pandora.ErrInput)
}

func TestReduceMissingProjection(t *testing.T) {
	_, err := Reduce(context.Background(), crossStore(t), ReduceJob{
		Input: "vec/", Projection: "nope.txt", Components: 1, Output: "r",
	})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestReportStats(t *testing.T) {
	rec := newRecorder([]string{"a", "b", "c"})
	rec.succeed(0, 1, 4)
	rec.succeed(2, 4, 16)
	rec.fail(1)

	report := rec.report("test")
	assert.Equal(t, []string{"b"}, report.FailedNames())
	assert.Equal(t, 2, report.Rows.N)
	assert.Equal(t, 2.5, report.Rows.Mean)
	assert.InDelta(t, 2.0, report.Rows.GeometricMean, 1e-12)
	assert.InDelta(t, 8.0, report.Output.GeometricMean, 1e-12)
	assert.Equal(t, 20.0, report.Output.Sum)

	assert.Equal(t, Stats{}, summarize(nil))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := OpenStore(ctx, config.StorageConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, s)

	s, err = OpenStore(ctx, config.StorageConfig{Backend: "local", Root: t.TempDir(), CacheTTL: time.Minute, Retries: 2}, nil)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.RetryingStore{}, s)

	_, err = OpenStore(ctx, config.StorageConfig{Backend: "ftp"}, nil)
	assert.ErrorIs(t, err, pandora.ErrInput)
}

func TestRunner(t *testing.T) {
	ctx := context.Background()

	cfg, err := config.Parse([]byte(`
storage:
  backend: memory
  compression: lz4
workers:
  max: 2
log:
  level: error
build:
  input: desc/
  extension: .sift
  method: vlad
  vocabularies: [vocab/a.txt, vocab/b.txt]
  output: vec
project:
  input: vec/
  extension: .vlad
  output: projection.txt
reduce:
  input: vec/
  extension: .vlad
  projection: projection.txt.lz4
  components: 2
  output: reduced
`))
	require.NoError(t, err)

	runner, err := NewRunnerFromConfig(ctx, cfg)
	require.NoError(t, err)

	store := runner.Store()
	put(t, store, "vocab/a.txt", "0,0\n4,4\n")
	put(t, store, "vocab/b.txt", "1,0\n0,1\n8,8\n")
	put(t, store, "desc/1.sift", "0,1\n4,5\n")
	put(t, store, "desc/2.sift", "3,3\n7,9\n1,0\n")
	put(t, store, "desc/3.sift", "8,8\n")
	put(t, store, "desc/4.sift", "2,1\n0,0\n5,4\n")

	reports, err := runner.Run(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, JobBuild, reports[0].Job)
	assert.Zero(t, reports[0].FailedCount())
	assert.Equal(t, 4.0+6.0, reports[0].Output.Max)

	assert.Equal(t, JobProject, reports[1].Job)
	assert.Equal(t, "projection.txt.lz4", reports[1].Artifact)

	assert.Equal(t, JobReduce, reports[2].Job)
	assert.Equal(t, 4, reports[2].Count())
	assert.Len(t, readVector(t, store, "reduced/1.vlad.lz4"), 2)
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	runner := NewRunner(blobstore.NewMemoryStore())
	_, err := runner.Run(context.Background(), config.Default())
	assert.ErrorIs(t, err, pandora.ErrInput)
}
