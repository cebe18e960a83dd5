package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformMatrix generates num rows with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformMatrix(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	rows := make([][]float64, num)

	for i := range num {
		row := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range row {
			row[j] = r.rand.Float64()
		}
		rows[i] = row
	}

	return rows
}

// UniformRangeMatrix generates num rows with values in range [minVal, maxVal).
func (r *RNG) UniformRangeMatrix(num, dim int, minVal, maxVal float64) [][]float64 {
	rows := r.UniformMatrix(num, dim)
	span := maxVal - minVal
	for _, row := range rows {
		for j := range row {
			row[j] = minVal + row[j]*span
		}
	}
	return rows
}

// GaussianMatrix generates num rows with values from a standard normal distribution.
func (r *RNG) GaussianMatrix(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	rows := make([][]float64, num)

	for i := range num {
		row := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range row {
			row[j] = r.rand.NormFloat64()
		}
		rows[i] = row
	}

	return rows
}

// ScaledGaussianMatrix generates rows whose j-th component has standard
// deviation scales[j]. Useful to give PCA a known ordering of variances.
func (r *RNG) ScaledGaussianMatrix(num int, scales []float64) [][]float64 {
	rows := r.GaussianMatrix(num, len(scales))
	for _, row := range rows {
		for j := range row {
			row[j] *= scales[j]
		}
	}
	return rows
}

// ClusteredMatrix generates rows clustered around random centroids drawn
// uniformly from [0, 1). It returns the rows and the centroids.
func (r *RNG) ClusteredMatrix(num, dim, clusters int, spread float64) ([][]float64, [][]float64) {
	centroids := r.UniformMatrix(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]float64, num)
	for i := range num {
		c := centroids[i%clusters]
		row := make([]float64, dim)
		for j := range dim {
			row[j] = c[j] + r.rand.NormFloat64()*spread
		}
		rows[i] = row
	}

	return rows, centroids
}

// BruteForceNearest returns the index of the centroid closest to v by full
// squared Euclidean distance, lowest index first on ties.
func BruteForceNearest(v []float64, centroids [][]float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range centroids {
		d := SquaredL2(v, c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Clone returns a deep copy of m.
func Clone(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
