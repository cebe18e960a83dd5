// Package projection fits a PCA projection space to a set of vectors and
// reduces vectors onto its most dominant components.
//
// A Space holds the adjustment mean and the principal component eigenvectors,
// one per row, in descending singular value order. A ProjectionReducer keeps
// the first n rows of a space and maps full-length vectors to n components.
//
// Spaces and reducers are immutable and safe for concurrent use.
package projection

import (
	"math"
	"sort"

	"github.com/hupe1980/pandora"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitConfig configures Fit.
type FitConfig struct {
	// Whiten scales every eigenvector by σ^(-1/2) of its singular value.
	// It requires at least as many rows as columns.
	Whiten bool

	// Compact keeps only min(n, d) eigenvectors instead of d.
	Compact bool
}

// Space is a PCA projection space.
type Space struct {
	space  *mat.Dense // rank × dim, one eigenvector per row
	mean   []float64
	values []float64 // descending; nil when the space was not fit
}

// Fit computes the projection space of data (n rows of width d).
//
// The rows are mean-centered, the right singular vectors are computed without
// the left ones and sorted by descending singular value. In the full form with
// n < d the vectors without a singular value sort last with value 0.
//
// With Whiten, eigenvector i is scaled by σ_i^(-1/2); an eigenvector whose
// singular value is exactly zero becomes the zero vector.
func Fit(data [][]float64, cfg FitConfig) (*Space, error) {
	const op = "projection.Fit"

	n := len(data)
	if n == 0 {
		return nil, pandora.NewInputError(op, "data is empty")
	}

	d := len(data[0])
	if d == 0 {
		return nil, pandora.NewInputError(op, "rows must not be empty")
	}

	for i, row := range data {
		if len(row) != d {
			return nil, pandora.NewInputError(op, "row %d: dimension mismatch: expected %d, got %d", i, d, len(row))
		}
	}

	if cfg.Whiten && n < d {
		return nil, pandora.NewInputError(op, "whitening requires at least as many rows as columns: %d < %d", n, d)
	}

	a := mat.NewDense(n, d, nil)
	for i, row := range data {
		a.SetRow(i, row)
	}

	mean := make([]float64, d)
	col := make([]float64, n)
	for j := range mean {
		mat.Col(col, j, a)
		mean[j] = stat.Mean(col, nil)
	}

	for i := range n {
		floats.Sub(a.RawRowView(i), mean)
	}

	kind := mat.SVDFullV
	if cfg.Compact {
		kind = mat.SVDThinV
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, kind); !ok {
		return nil, pandora.NewComputationError(op, "singular value decomposition did not converge", nil)
	}

	var v mat.Dense
	svd.VTo(&v)
	_, rank := v.Dims()

	sigma := make([]float64, rank)
	copy(sigma, svd.Values(nil))

	order := make([]int, rank)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return sigma[order[i]] > sigma[order[j]] })

	space := mat.NewDense(rank, d, nil)
	values := make([]float64, rank)

	for r, k := range order {
		values[r] = sigma[k]

		row := space.RawRowView(r)
		mat.Col(row, k, &v)

		if cfg.Whiten {
			scale := 0.0
			if sigma[k] != 0 {
				scale = math.Pow(sigma[k], -0.5)
			}
			floats.Scale(scale, row)
		}
	}

	return &Space{
		space:  space,
		mean:   mean,
		values: values,
	}, nil
}

// NewSpace wraps an existing basis (one eigenvector per row, most dominant
// first) and its adjustment mean. The inputs are copied.
func NewSpace(space [][]float64, mean []float64) (*Space, error) {
	dense, err := denseRows("projection.NewSpace", space, mean)
	if err != nil {
		return nil, err
	}

	return &Space{
		space: dense,
		mean:  append([]float64(nil), mean...),
	}, nil
}

func denseRows(op string, rows [][]float64, mean []float64) (*mat.Dense, error) {
	if len(mean) == 0 {
		return nil, pandora.NewInputError(op, "mean vector is empty")
	}
	if len(rows) == 0 {
		return nil, pandora.NewInputError(op, "basis is empty")
	}

	dense := mat.NewDense(len(rows), len(mean), nil)
	for i, row := range rows {
		if len(row) != len(mean) {
			return nil, pandora.NewInputError(op, "row %d: dimension mismatch: expected %d, got %d", i, len(mean), len(row))
		}
		dense.SetRow(i, row)
	}

	return dense, nil
}

// Mean returns a copy of the adjustment mean vector.
func (s *Space) Mean() []float64 {
	return append([]float64(nil), s.mean...)
}

// Space returns a copy of every eigenvector, most dominant first.
func (s *Space) Space() [][]float64 {
	return rowsOf(s.space, s.Rank())
}

// Values returns the singular values in descending order, or nil when the
// space was not produced by Fit.
func (s *Space) Values() []float64 {
	if s.values == nil {
		return nil
	}
	return append([]float64(nil), s.values...)
}

// Rank returns the number of eigenvectors.
func (s *Space) Rank() int {
	r, _ := s.space.Dims()
	return r
}

// Dim returns the vector width.
func (s *Space) Dim() int { return len(s.mean) }

// Basis returns the first n eigenvectors.
func (s *Space) Basis(n int) ([][]float64, error) {
	if n < 1 || n > s.Rank() {
		return nil, pandora.NewInputError("projection.Basis", "components must be in [1, %d], got %d", s.Rank(), n)
	}
	return rowsOf(s.space, n), nil
}

// Reducer returns a reducer onto the first n eigenvectors.
func (s *Space) Reducer(n int, whiten bool) (*ProjectionReducer, error) {
	basis, err := s.Basis(n)
	if err != nil {
		return nil, err
	}
	return NewReducer(basis, s.mean, whiten)
}

func rowsOf(m *mat.Dense, n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
