package aggregate

import (
	"math"
	"sync"
	"testing"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/codebook"
	"github.com/hupe1980/pandora/normalize"
	"github.com/hupe1980/pandora/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoCentroids(t testing.TB) *codebook.Codebook {
	t.Helper()
	cb, err := codebook.New([][]float64{{0, 0}, {10, 10}})
	require.NoError(t, err)
	return cb
}

var threeDescriptors = [][]float64{{1, 1}, {1, 1}, {9, 9}}

func TestParseMethod(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Method
	}{
		{"bow", BOW},
		{"VLAD", VLAD},
		{" Vlat ", VLAT},
	} {
		m, err := ParseMethod(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m)
	}

	_, err := ParseMethod("fisher")
	assert.ErrorIs(t, err, pandora.ErrInput)

	assert.Equal(t, "vlad", VLAD.String())
	assert.Equal(t, "Unknown(9)", Method(9).String())
}

func TestMethodText(t *testing.T) {
	var m Method
	require.NoError(t, m.UnmarshalText([]byte("vlat")))
	assert.Equal(t, VLAT, m)

	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "vlat", string(b))

	_, err = Method(9).MarshalText()
	assert.Error(t, err)
}

func TestBOW(t *testing.T) {
	agg, err := New(Config{Method: BOW}, twoCentroids(t))
	require.NoError(t, err)

	v, err := agg.Aggregate(threeDescriptors)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, v)
	assert.Equal(t, 2, agg.Size())
	assert.Equal(t, BOW, agg.Method())
}

func TestVLAD(t *testing.T) {
	agg, err := New(Config{Method: VLAD}, twoCentroids(t))
	require.NoError(t, err)

	v, err := agg.Aggregate(threeDescriptors)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, -1, -1}, v)
	assert.Equal(t, 4, agg.Size())
}

func TestVLAT(t *testing.T) {
	agg, err := New(Config{Method: VLAT}, twoCentroids(t))
	require.NoError(t, err)

	v, err := agg.Aggregate(threeDescriptors)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		2, 2, 2, 2, 2, 2, // centroid 0: residual sum, then outer product sum
		-1, -1, 1, 1, 1, 1, // centroid 1
	}, v)
	assert.Equal(t, 12, agg.Size())
}

func TestVLATOuterProductLayout(t *testing.T) {
	cb, err := codebook.New([][]float64{{0, 0, 0}})
	require.NoError(t, err)
	agg, err := NewVLAT(false, cb)
	require.NoError(t, err)

	v, err := agg.Aggregate([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{
		1, 2, 3,
		1, 2, 3,
		2, 4, 6,
		3, 6, 9,
	}, v)
}

func TestVLADNormalized(t *testing.T) {
	agg, err := NewVLAD(true, twoCentroids(t))
	require.NoError(t, err)

	v, err := agg.Aggregate(threeDescriptors)
	require.NoError(t, err)

	s6 := math.Sqrt(6)
	assert.InDeltaSlice(t, []float64{math.Sqrt2 / s6, math.Sqrt2 / s6, -1 / s6, -1 / s6}, v, 1e-12)
	assert.InDelta(t, 1.0, normalize.Norm(v), 1e-12)
}

func TestEmptyDescriptors(t *testing.T) {
	cb := twoCentroids(t)

	raw, err := NewBOW(false, cb)
	require.NoError(t, err)
	v, err := raw.Aggregate(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, v)

	norm, err := NewBOW(true, cb)
	require.NoError(t, err)
	v, err = norm.Aggregate([][]float64{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, v)
}

func TestMultipleCodebooks(t *testing.T) {
	first := twoCentroids(t)
	second, err := codebook.New([][]float64{{1, 1}, {5, 5}, {9, 9}})
	require.NoError(t, err)

	t.Run("order is preserved", func(t *testing.T) {
		agg, err := NewBOW(false, first, second)
		require.NoError(t, err)
		v, err := agg.Aggregate(threeDescriptors)
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 1, 2, 0, 1}, v)

		agg, err = NewBOW(false, second, first)
		require.NoError(t, err)
		v, err = agg.Aggregate(threeDescriptors)
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 0, 1, 2, 1}, v)
	})

	t.Run("final euclidean pass", func(t *testing.T) {
		agg, err := NewBOW(true, first, second)
		require.NoError(t, err)
		v, err := agg.Aggregate(nil)
		require.NoError(t, err)

		// Every sub-vector falls back to ones; the concatenation is L2 normalized once more.
		want := 1 / math.Sqrt(5)
		assert.InDeltaSlice(t, []float64{want, want, want, want, want}, v, 1e-12)
	})

	t.Run("single codebook has no extra pass", func(t *testing.T) {
		agg, err := NewBOW(true, first)
		require.NoError(t, err)
		v, err := agg.Aggregate(nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1}, v)
	})

	t.Run("width mismatch", func(t *testing.T) {
		wide, err := codebook.New([][]float64{{1, 2, 3}})
		require.NoError(t, err)
		_, err = NewVLAD(false, first, wide)
		assert.ErrorIs(t, err, pandora.ErrInput)
	})
}

func TestLengths(t *testing.T) {
	rng := testutil.NewRNG(3)
	a, err := codebook.New(rng.UniformMatrix(8, 4))
	require.NoError(t, err)
	b, err := codebook.New(rng.UniformMatrix(5, 4))
	require.NoError(t, err)
	descriptors := rng.UniformMatrix(37, 4)

	for _, tt := range []struct {
		method Method
		want   int
	}{
		{BOW, 8 + 5},
		{VLAD, 8*4 + 5*4},
		{VLAT, 8*4 + 8*16 + 5*4 + 5*16},
	} {
		t.Run(tt.method.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Length(tt.method, a, b))

			agg, err := New(Config{Method: tt.method, Normalize: true}, a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, agg.Size())

			v, err := agg.Aggregate(descriptors)
			require.NoError(t, err)
			assert.Len(t, v, tt.want)
			assert.InDelta(t, 1.0, normalize.Norm(v), 1e-9)
		})
	}
}

func TestBOWHistogramSumsToDescriptorCount(t *testing.T) {
	rng := testutil.NewRNG(11)
	cb, err := codebook.New(rng.UniformMatrix(16, 8))
	require.NoError(t, err)
	agg, err := NewBOW(false, cb)
	require.NoError(t, err)

	for _, m := range []int{0, 1, 17, 250} {
		v, err := agg.Aggregate(rng.UniformMatrix(m, 8))
		require.NoError(t, err)

		sum := 0.0
		for _, x := range v {
			sum += x
		}
		assert.Equal(t, float64(m), sum)
	}
}

func TestVLADMatchesReference(t *testing.T) {
	rng := testutil.NewRNG(5)
	descriptors, centroids := rng.ClusteredMatrix(300, 6, 4, 0.1)
	cb, err := codebook.New(centroids)
	require.NoError(t, err)

	agg, err := NewVLAD(false, cb)
	require.NoError(t, err)
	v, err := agg.Aggregate(descriptors)
	require.NoError(t, err)

	want := make([]float64, 4*6)
	for _, d := range descriptors {
		nnk := testutil.BruteForceNearest(d, centroids)
		for i := range d {
			want[nnk*6+i] += d[i] - centroids[nnk][i]
		}
	}
	assert.InDeltaSlice(t, want, v, 1e-9)
}

func TestAggregateDimensionMismatch(t *testing.T) {
	agg, err := NewVLAD(false, twoCentroids(t))
	require.NoError(t, err)

	_, err = agg.Aggregate([][]float64{{1, 1}, {1, 2, 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, pandora.ErrInput)
	assert.Contains(t, err.Error(), "descriptor 1")
}

func TestNewInvalid(t *testing.T) {
	_, err := New(Config{Method: VLAD})
	assert.ErrorIs(t, err, pandora.ErrInput)

	_, err = New(Config{Method: BOW}, nil)
	assert.ErrorIs(t, err, pandora.ErrInput)

	_, err = New(Config{Method: Method(7)}, twoCentroids(t))
	assert.ErrorIs(t, err, pandora.ErrInput)
}

func TestAggregateConcurrent(t *testing.T) {
	rng := testutil.NewRNG(21)
	cb, err := codebook.New(rng.UniformMatrix(16, 4))
	require.NoError(t, err)
	agg, err := NewVLAT(true, cb)
	require.NoError(t, err)

	items := make([][][]float64, 16)
	want := make([][]float64, len(items))
	for i := range items {
		items[i] = rng.UniformMatrix(40, 4)
		want[i], err = agg.Aggregate(items[i])
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := agg.Aggregate(items[i])
			assert.NoError(t, err)
			assert.Equal(t, want[i], got)
		}()
	}
	wg.Wait()
}

func BenchmarkVLAT(b *testing.B) {
	rng := testutil.NewRNG(1)
	cb, err := codebook.New(rng.UniformMatrix(64, 32))
	require.NoError(b, err)
	agg, err := NewVLAT(true, cb)
	require.NoError(b, err)
	descriptors := rng.UniformMatrix(500, 32)

	b.ResetTimer()
	for range b.N {
		_, _ = agg.Aggregate(descriptors)
	}
}
