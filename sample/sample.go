// Package sample draws reproducible random subsets of rows, used to pick PCA
// training vectors.
//
// Two shapes are provided:
//
//   - Permutation: a fixed shuffled permutation of [0, n) from which an exact
//     prefix of ⌊n·ratio⌋ indices is taken.
//   - RandomPermutation: a streaming sampler that, for every input, shuffles the
//     row indices and then admits each row with probability ratio. The output
//     count is only expected, not exact.
//
// Both are driven by the 48-bit LCG in internal/lcg so that the same seed and
// the same input sizes always produce identical output.
package sample

import (
	"math"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/internal/lcg"
)

func validateRatio(op string, ratio float64) error {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return pandora.NewInputError(op, "ratio must be in [0, 1], got %v", ratio)
	}
	return nil
}

// Permutation is a seeded random permutation of [0, n).
//
// A Permutation is immutable and safe for concurrent use.
type Permutation struct {
	indices []int
}

// NewPermutation shuffles [0, n) with a generator seeded by seed.
func NewPermutation(n int, seed int64) (*Permutation, error) {
	if n < 0 {
		return nil, pandora.NewInputError("sample.NewPermutation", "size must be non-negative, got %d", n)
	}
	return &Permutation{indices: lcg.New(seed).Perm(n)}, nil
}

// Len returns n.
func (p *Permutation) Len() int { return len(p.indices) }

// Indices returns a copy of the full permutation.
func (p *Permutation) Indices() []int {
	return append([]int(nil), p.indices...)
}

// Sample returns the first ⌊n·ratio⌋ indices of the permutation, or all of
// them when that count is not smaller than n.
func (p *Permutation) Sample(ratio float64) ([]int, error) {
	if err := validateRatio("sample.Permutation.Sample", ratio); err != nil {
		return nil, err
	}

	size := int(float64(len(p.indices)) * ratio)
	if size >= len(p.indices) {
		return p.Indices(), nil
	}
	return append([]int(nil), p.indices[:size]...), nil
}

// RandomPermutation is a streaming ratio sampler.
//
// The generator advances on every call, so successive calls on the same
// instance draw different subsets. A RandomPermutation is not safe for
// concurrent use; give every worker its own instance.
type RandomPermutation struct {
	ratio float64
	src   *lcg.Source
}

// NewRandomPermutation creates a sampler admitting rows with probability ratio.
func NewRandomPermutation(ratio float64, seed int64) (*RandomPermutation, error) {
	if err := validateRatio("sample.NewRandomPermutation", ratio); err != nil {
		return nil, err
	}
	return &RandomPermutation{
		ratio: ratio,
		src:   lcg.New(seed),
	}, nil
}

// Ratio returns the admission probability.
func (p *RandomPermutation) Ratio() float64 { return p.ratio }

// SampleIndices permutes [0, n) and returns, in permuted order, the indices
// admitted with probability ratio.
//
// The permutation step is skipped for n < 2. One uniform draw is consumed per
// index even when the ratio is 0 or 1, so the generator sequence only depends
// on the input sizes.
func (p *RandomPermutation) SampleIndices(n int) []int {
	if n <= 0 {
		return []int{}
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if n > 1 {
		p.src.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}

	sampled := indices[:0]
	for _, idx := range indices {
		if p.src.Float64() <= p.ratio && p.ratio > 0 {
			sampled = append(sampled, idx)
		}
	}

	return sampled
}

// Sample returns the admitted rows in permuted order. Rows are not copied.
func (p *RandomPermutation) Sample(rows [][]float64) [][]float64 {
	indices := p.SampleIndices(len(rows))

	sampled := make([][]float64, len(indices))
	for i, idx := range indices {
		sampled[i] = rows[idx]
	}
	return sampled
}
