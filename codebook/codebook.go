// Package codebook provides immutable sets of reference vectors ("centroids")
// with nearest-centroid lookup.
//
// A Codebook is typically loaded from a clustering artifact (one centroid per
// row) and shared read-only by every aggregation call.
package codebook

import (
	"math"

	"github.com/hupe1980/pandora"
)

// Codebook is an ordered set of k centroids of equal width d.
//
// Codebooks are immutable and safe for concurrent use.
type Codebook struct {
	k         int
	width     int
	centroids []float64 // k * width, row-major
}

// New creates a codebook from the given centroids. The centroids are copied.
//
// It returns an *pandora.InputError if there are no centroids, the width is
// zero, or the rows are not of equal width.
func New(centroids [][]float64) (*Codebook, error) {
	if len(centroids) == 0 {
		return nil, pandora.NewInputError("codebook.New", "codebook has no centroids")
	}

	width := len(centroids[0])
	if width == 0 {
		return nil, pandora.NewInputError("codebook.New", "codebook has zero width")
	}

	flat := make([]float64, 0, len(centroids)*width)
	for i, c := range centroids {
		if len(c) != width {
			return nil, pandora.NewInputError("codebook.New", "centroid %d: dimension mismatch: expected %d, got %d", i, width, len(c))
		}
		flat = append(flat, c...)
	}

	return &Codebook{
		k:         len(centroids),
		width:     width,
		centroids: flat,
	}, nil
}

// Size returns the number of centroids k.
func (cb *Codebook) Size() int { return cb.k }

// Width returns the centroid dimensionality d.
func (cb *Codebook) Width() int { return cb.width }

// Component returns the j-th component of the i-th centroid.
func (cb *Codebook) Component(i, j int) float64 {
	return cb.centroids[i*cb.width+j]
}

// Centroid returns a read-only view of the i-th centroid.
// Callers must not modify the returned slice.
func (cb *Codebook) Centroid(i int) []float64 {
	return cb.centroids[i*cb.width : (i+1)*cb.width : (i+1)*cb.width]
}

// Centroids returns a copy of all centroids.
func (cb *Codebook) Centroids() [][]float64 {
	out := make([][]float64, cb.k)
	for i := range out {
		out[i] = append([]float64(nil), cb.Centroid(i)...)
	}
	return out
}

// Nearest returns the index of the centroid at minimum squared Euclidean
// distance from descriptor. Ties resolve to the lowest index.
//
// The squared distance to each candidate is accumulated component by
// component and abandoned as soon as it reaches the best distance so far.
func (cb *Codebook) Nearest(descriptor []float64) (int, error) {
	if len(descriptor) != cb.width {
		return -1, pandora.DimensionMismatch("codebook.Nearest", cb.width, len(descriptor))
	}
	return cb.nearest(descriptor), nil
}

// nearest assumes len(descriptor) == cb.width.
func (cb *Codebook) nearest(descriptor []float64) int {
	best := -1
	minDist := math.MaxFloat64

	for i := 0; i < cb.k; i++ {
		c := cb.centroids[i*cb.width : (i+1)*cb.width]

		dist := 0.0
		for j, x := range descriptor {
			diff := c[j] - x
			dist += diff * diff
			if dist >= minDist {
				break
			}
		}

		if dist < minDist {
			minDist = dist
			best = i
		}
	}

	// Only reachable when every distance is +Inf or NaN.
	if best < 0 {
		best = 0
	}

	return best
}

// Distance returns the full squared Euclidean distance between descriptor and
// the i-th centroid.
func (cb *Codebook) Distance(descriptor []float64, i int) (float64, error) {
	if len(descriptor) != cb.width {
		return 0, pandora.DimensionMismatch("codebook.Distance", cb.width, len(descriptor))
	}
	if i < 0 || i >= cb.k {
		return 0, pandora.NewInputError("codebook.Distance", "centroid index %d out of range [0, %d)", i, cb.k)
	}

	c := cb.Centroid(i)
	dist := 0.0
	for j, x := range descriptor {
		diff := c[j] - x
		dist += diff * diff
	}
	return dist, nil
}
