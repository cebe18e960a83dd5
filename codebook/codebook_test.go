package codebook

import (
	"errors"
	"sync"
	"testing"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cb, err := New([][]float64{{0, 0}, {10, 10}})
	require.NoError(t, err)

	assert.Equal(t, 2, cb.Size())
	assert.Equal(t, 2, cb.Width())
	assert.Equal(t, 10.0, cb.Component(1, 0))
	assert.Equal(t, []float64{10, 10}, cb.Centroid(1))
	assert.Equal(t, [][]float64{{0, 0}, {10, 10}}, cb.Centroids())
}

func TestNewCopiesCentroids(t *testing.T) {
	src := [][]float64{{1, 2}}
	cb, err := New(src)
	require.NoError(t, err)

	src[0][0] = 99
	assert.Equal(t, 1.0, cb.Component(0, 0))

	out := cb.Centroids()
	out[0][1] = 99
	assert.Equal(t, 2.0, cb.Component(0, 1))
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name      string
		centroids [][]float64
	}{
		{"empty", nil},
		{"zero width", [][]float64{{}}},
		{"ragged", [][]float64{{1, 2}, {3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.centroids)
			require.Error(t, err)
			assert.ErrorIs(t, err, pandora.ErrInput)

			var ie *pandora.InputError
			assert.True(t, errors.As(err, &ie))
			assert.Equal(t, "codebook.New", ie.Op)
		})
	}
}

func TestNearest(t *testing.T) {
	cb, err := New([][]float64{{0, 0}, {10, 10}})
	require.NoError(t, err)

	idx, err := cb.Nearest([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = cb.Nearest([]float64{9, 9})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestNearestTieGoesToLowestIndex(t *testing.T) {
	cb, err := New([][]float64{{-1, 0}, {1, 0}, {0, 0}, {0, 0}})
	require.NoError(t, err)

	idx, err := cb.Nearest([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = cb.Nearest([]float64{0, 5})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	// Equidistant from the first two.
	cb, err = New([][]float64{{-1, 0}, {1, 0}})
	require.NoError(t, err)
	idx, err = cb.Nearest([]float64{0, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestNearestDimensionMismatch(t *testing.T) {
	cb, err := New([][]float64{{0, 0}})
	require.NoError(t, err)

	_, err = cb.Nearest([]float64{1, 2, 3})
	assert.ErrorIs(t, err, pandora.ErrInput)
	assert.Contains(t, err.Error(), "expected 2, got 3")
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(42)
	centroids := rng.UniformMatrix(64, 16)
	descriptors := rng.UniformMatrix(500, 16)

	cb, err := New(centroids)
	require.NoError(t, err)

	for _, d := range descriptors {
		idx, err := cb.Nearest(d)
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, cb.Size())
		assert.Equal(t, testutil.BruteForceNearest(d, centroids), idx)

		best, err := cb.Distance(d, idx)
		require.NoError(t, err)
		for j := range cb.Size() {
			other, err := cb.Distance(d, j)
			require.NoError(t, err)
			assert.LessOrEqual(t, best, other)
		}
	}
}

func TestDistance(t *testing.T) {
	cb, err := New([][]float64{{0, 0}, {10, 10}})
	require.NoError(t, err)

	d, err := cb.Distance([]float64{9, 9}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)

	_, err = cb.Distance([]float64{9, 9}, 2)
	assert.ErrorIs(t, err, pandora.ErrInput)

	_, err = cb.Distance([]float64{9}, 0)
	assert.ErrorIs(t, err, pandora.ErrInput)
}

func TestNearestConcurrent(t *testing.T) {
	rng := testutil.NewRNG(7)
	cb, err := New(rng.UniformMatrix(32, 8))
	require.NoError(t, err)
	descriptors := rng.UniformMatrix(200, 8)

	want := make([]int, len(descriptors))
	for i, d := range descriptors {
		want[i], _ = cb.Nearest(d)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, d := range descriptors {
				got, err := cb.Nearest(d)
				assert.NoError(t, err)
				assert.Equal(t, want[i], got)
			}
		}()
	}
	wg.Wait()
}

func BenchmarkNearest(b *testing.B) {
	rng := testutil.NewRNG(1)
	cb, err := New(rng.UniformMatrix(256, 128))
	require.NoError(b, err)
	d := rng.UniformMatrix(1, 128)[0]

	b.ResetTimer()
	for range b.N {
		_, _ = cb.Nearest(d)
	}
}
