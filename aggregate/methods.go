package aggregate

import "github.com/hupe1980/pandora/codebook"

// BOWAggregator builds a histogram of nearest-centroid assignment counts.
type BOWAggregator struct {
	*base
}

// NewBOW creates a bag-of-words aggregator over the given codebooks.
func NewBOW(normalize bool, codebooks ...*codebook.Codebook) (*BOWAggregator, error) {
	b, err := newBase(BOW, normalize, codebooks, accumulateBOW)
	if err != nil {
		return nil, err
	}
	return &BOWAggregator{base: b}, nil
}

func accumulateBOW(_ *codebook.Codebook, sub, _, _ []float64, nnk int) {
	sub[nnk]++
}

// VLADAggregator accumulates, per centroid, the residuals of the descriptors
// assigned to it.
//
// Layout: the residual component i of centroid nnk lives at nnk·d + i.
type VLADAggregator struct {
	*base
}

// NewVLAD creates a VLAD aggregator over the given codebooks.
func NewVLAD(normalize bool, codebooks ...*codebook.Codebook) (*VLADAggregator, error) {
	b, err := newBase(VLAD, normalize, codebooks, accumulateVLAD)
	if err != nil {
		return nil, err
	}
	return &VLADAggregator{base: b}, nil
}

func accumulateVLAD(cb *codebook.Codebook, sub, descriptor, _ []float64, nnk int) {
	d := cb.Width()
	c := cb.Centroid(nnk)
	block := sub[nnk*d : (nnk+1)*d]
	for i, x := range descriptor {
		block[i] += x - c[i]
	}
}

// VLATAggregator extends VLAD with the second order statistics of the
// residuals: the self tensor (outer) product r·rᵀ summed per centroid.
//
// Layout: every centroid owns a block of d + d² components starting at
// nnk·d + nnk·d². The first d hold the residual sum, the following d² hold
// the flattened d×d outer product sum (row i, column j at d + i·d + j).
//
// The cost is O(m·d²) per item.
type VLATAggregator struct {
	*base
}

// NewVLAT creates a VLAT aggregator over the given codebooks.
func NewVLAT(normalize bool, codebooks ...*codebook.Codebook) (*VLATAggregator, error) {
	b, err := newBase(VLAT, normalize, codebooks, accumulateVLAT)
	if err != nil {
		return nil, err
	}
	return &VLATAggregator{base: b}, nil
}

func accumulateVLAT(cb *codebook.Codebook, sub, descriptor, residual []float64, nnk int) {
	d := cb.Width()
	c := cb.Centroid(nnk)

	for i, x := range descriptor {
		residual[i] = x - c[i]
	}

	start := nnk*d + nnk*d*d
	first := sub[start : start+d]
	second := sub[start+d : start+d+d*d]

	for i, ri := range residual {
		first[i] += ri
		row := second[i*d : (i+1)*d]
		for j, rj := range residual {
			row[j] += ri * rj
		}
	}
}

var (
	_ Aggregator = (*BOWAggregator)(nil)
	_ Aggregator = (*VLADAggregator)(nil)
	_ Aggregator = (*VLATAggregator)(nil)
)
