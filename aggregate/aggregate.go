// Package aggregate turns a variable-length list of local descriptors into one
// fixed-length vector using one or more codebooks.
//
// Three methods are supported:
//
//   - BOW: histogram of nearest-centroid assignments (length k)
//   - VLAD: per-centroid sum of residuals (length k·d)
//   - VLAT: VLAD plus the per-centroid residual self tensor product (length k·d + k·d²)
//
// With several codebooks every sub-vector is built independently, in the order
// the codebooks were supplied, and the results are concatenated.
//
// With normalization enabled each sub-vector is power normalized (a = 0.5) and
// then L2 normalized; when more than one codebook is used the concatenation is
// L2 normalized once more.
//
// Aggregators are immutable and safe for concurrent use.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/codebook"
	"github.com/hupe1980/pandora/normalize"
)

// Method selects the aggregation method.
type Method int

const (
	BOW Method = iota
	VLAD
	VLAT
)

func (m Method) String() string {
	switch m {
	case BOW:
		return "bow"
	case VLAD:
		return "vlad"
	case VLAT:
		return "vlat"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMethod returns the method for a case-insensitive name ("bow", "vlad", "vlat").
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bow":
		return BOW, nil
	case "vlad":
		return VLAD, nil
	case "vlat":
		return VLAT, nil
	default:
		return 0, pandora.NewInputError("aggregate.ParseMethod", "unknown aggregation method %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	switch m {
	case BOW, VLAD, VLAT:
		return []byte(m.String()), nil
	default:
		return nil, pandora.NewInputError("aggregate.Method", "unknown aggregation method %d", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config configures an aggregator.
type Config struct {
	Method Method

	// Normalize enables power + L2 normalization of every sub-vector, plus a
	// final L2 pass over the concatenation when several codebooks are used.
	Normalize bool
}

// Aggregator produces one fixed-length vector per descriptor list.
type Aggregator interface {
	// Aggregate consumes the descriptors of one item (each of the codebook
	// width) and returns a vector of length Size().
	//
	// An empty descriptor list is valid and yields the zero vector (all ones
	// after normalization).
	Aggregate(descriptors [][]float64) ([]float64, error)

	// Size returns the output vector length.
	Size() int

	// Method returns the aggregation method.
	Method() Method
}

// New creates the aggregator selected by cfg.Method.
func New(cfg Config, codebooks ...*codebook.Codebook) (Aggregator, error) {
	var (
		agg Aggregator
		err error
	)

	switch cfg.Method {
	case BOW:
		agg, err = NewBOW(cfg.Normalize, codebooks...)
	case VLAD:
		agg, err = NewVLAD(cfg.Normalize, codebooks...)
	case VLAT:
		agg, err = NewVLAT(cfg.Normalize, codebooks...)
	default:
		return nil, pandora.NewInputError("aggregate.New", "unknown aggregation method %d", int(cfg.Method))
	}
	if err != nil {
		return nil, err
	}

	return agg, nil
}

// Length returns the output length of method over the given codebooks.
func Length(method Method, codebooks ...*codebook.Codebook) int {
	n := 0
	for _, cb := range codebooks {
		n += subLength(method, cb.Size(), cb.Width())
	}
	return n
}

func subLength(method Method, k, d int) int {
	switch method {
	case BOW:
		return k
	case VLAD:
		return k * d
	case VLAT:
		return k*d + k*d*d
	default:
		return 0
	}
}

// accumulator adds one descriptor assigned to centroid nnk into sub.
type accumulator func(cb *codebook.Codebook, sub, descriptor, scratch []float64, nnk int)

// base holds what every method shares: the ordered codebooks and the
// normalization/concatenation rule.
type base struct {
	method    Method
	codebooks []*codebook.Codebook
	normalize bool
	width     int
	size      int
	acc       accumulator
}

func newBase(method Method, normalize bool, codebooks []*codebook.Codebook, acc accumulator) (*base, error) {
	op := "aggregate.New" + strings.ToUpper(method.String())

	if len(codebooks) == 0 {
		return nil, pandora.NewInputError(op, "at least one codebook is required")
	}

	for i, cb := range codebooks {
		if cb == nil {
			return nil, pandora.NewInputError(op, "codebook %d is nil", i)
		}
		if cb.Width() != codebooks[0].Width() {
			return nil, pandora.NewInputError(op, "codebook %d: width mismatch: expected %d, got %d", i, codebooks[0].Width(), cb.Width())
		}
	}

	return &base{
		method:    method,
		codebooks: append([]*codebook.Codebook(nil), codebooks...),
		normalize: normalize,
		width:     codebooks[0].Width(),
		size:      Length(method, codebooks...),
		acc:       acc,
	}, nil
}

func (b *base) Size() int { return b.size }

func (b *base) Method() Method { return b.method }

// Codebooks returns the codebooks in aggregation order.
func (b *base) Codebooks() []*codebook.Codebook {
	return append([]*codebook.Codebook(nil), b.codebooks...)
}

func (b *base) Aggregate(descriptors [][]float64) ([]float64, error) {
	for i, d := range descriptors {
		if len(d) != b.width {
			return nil, pandora.NewInputError("aggregate.Aggregate", "descriptor %d: dimension mismatch: expected %d, got %d", i, b.width, len(d))
		}
	}

	out := make([]float64, b.size)
	scratch := make([]float64, b.width)

	off := 0
	for _, cb := range b.codebooks {
		n := subLength(b.method, cb.Size(), cb.Width())
		sub := out[off : off+n : off+n]

		for _, d := range descriptors {
			nnk, err := cb.Nearest(d)
			if err != nil {
				return nil, err
			}
			b.acc(cb, sub, d, scratch, nnk)
		}

		if b.normalize {
			normalize.Power(sub, normalize.DefaultPower)
			normalize.Euclidean(sub)
		}

		off += n
	}

	if b.normalize && len(b.codebooks) > 1 {
		normalize.Euclidean(out)
	}

	return out, nil
}
