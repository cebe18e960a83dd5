// Package normalize provides the in-place vector normalizations applied to
// aggregated and reduced vectors.
//
// The two transforms are never composed implicitly; callers choose
// power-then-euclidean, euclidean only, or neither.
package normalize

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultPower is the exponent used for signed power normalization of
// aggregated vectors.
const DefaultPower = 0.5

// Power replaces every component x of v with sign(x)·|x|^a.
func Power(v []float64, a float64) {
	for i, x := range v {
		switch {
		case x > 0:
			v[i] = math.Pow(x, a)
		case x < 0:
			v[i] = -math.Pow(-x, a)
		}
	}
}

// Euclidean L2-normalizes v in place.
//
// A vector with zero norm is filled with ones instead of being divided.
func Euclidean(v []float64) {
	norm := Norm(v)
	if norm == 0 {
		for i := range v {
			v[i] = 1
		}
		return
	}
	for i := range v {
		v[i] /= norm
	}
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}
