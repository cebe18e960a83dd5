package projection

import (
	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/normalize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Reducer maps full-length vectors to a smaller number of components.
type Reducer interface {
	// Reduce returns the reduced form of v, which must have length Dim().
	Reduce(v []float64) ([]float64, error)

	// Dim returns the expected input length.
	Dim() int

	// Components returns the output length.
	Components() int
}

// ProjectionReducer projects mean-adjusted vectors onto a subspace.
//
// When whiten is set the projected vector is L2 normalized, matching a
// subspace taken from a whitened space.
type ProjectionReducer struct {
	subspace *mat.Dense // components × dim
	mean     []float64
	whiten   bool
}

// NewReducer creates a reducer from a subspace (one eigenvector per row) and
// the adjustment mean. The inputs are copied.
func NewReducer(subspace [][]float64, mean []float64, whiten bool) (*ProjectionReducer, error) {
	dense, err := denseRows("projection.NewReducer", subspace, mean)
	if err != nil {
		return nil, err
	}

	return &ProjectionReducer{
		subspace: dense,
		mean:     append([]float64(nil), mean...),
		whiten:   whiten,
	}, nil
}

// Reduce computes subspace · (v − mean).
func (r *ProjectionReducer) Reduce(v []float64) ([]float64, error) {
	if len(v) != len(r.mean) {
		return nil, pandora.DimensionMismatch("projection.Reduce", len(r.mean), len(v))
	}

	centered := make([]float64, len(v))
	floats.SubTo(centered, v, r.mean)

	out := mat.NewVecDense(r.Components(), nil)
	out.MulVec(r.subspace, mat.NewVecDense(len(centered), centered))

	reduced := out.RawVector().Data
	if r.whiten {
		normalize.Euclidean(reduced)
	}

	return reduced, nil
}

// Dim returns the expected input length.
func (r *ProjectionReducer) Dim() int { return len(r.mean) }

// Components returns the output length.
func (r *ProjectionReducer) Components() int {
	n, _ := r.subspace.Dims()
	return n
}

// Whiten reports whether reduced vectors are L2 normalized.
func (r *ProjectionReducer) Whiten() bool { return r.whiten }

// Mean returns a copy of the adjustment mean vector.
func (r *ProjectionReducer) Mean() []float64 {
	return append([]float64(nil), r.mean...)
}

// Subspace returns a copy of the subspace rows.
func (r *ProjectionReducer) Subspace() [][]float64 {
	return rowsOf(r.subspace, r.Components())
}

var _ Reducer = (*ProjectionReducer)(nil)
