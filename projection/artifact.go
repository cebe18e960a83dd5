package projection

import (
	"io"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/codec"
)

// The projection artifact is a numeric text file: the first line holds the
// adjustment mean, each following line one eigenvector, most dominant first.
// Singular values are not stored.

// WriteSpace writes s in the artifact layout.
func WriteSpace(w io.Writer, s *Space) error {
	return WriteBasis(w, s.mean, s.Space())
}

// WriteBasis writes a mean vector followed by basis rows in the artifact
// layout. It is used to persist a truncated subspace.
func WriteBasis(w io.Writer, mean []float64, basis [][]float64) error {
	rows := make([][]float64, 0, len(basis)+1)
	rows = append(rows, mean)
	rows = append(rows, basis...)
	return codec.WriteMatrix(w, rows)
}

// ReadSpace reads a space written by WriteSpace or WriteBasis.
func ReadSpace(r io.Reader) (*Space, error) {
	lines, err := codec.ReadMatrix(r)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, pandora.NewInputError("projection.ReadSpace", "artifact needs a mean line and at least one eigenvector, got %d lines", len(lines))
	}
	return NewSpace(lines[1:], lines[0])
}

// LoadReducer reads a projection artifact and builds a reducer on its first
// components eigenvectors. components <= 0 keeps every eigenvector.
func LoadReducer(r io.Reader, components int, whiten bool) (*ProjectionReducer, error) {
	s, err := ReadSpace(r)
	if err != nil {
		return nil, err
	}
	if components <= 0 {
		components = s.Rank()
	}
	return s.Reducer(components, whiten)
}
