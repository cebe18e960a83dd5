// Package lcg implements the 48-bit linear congruential generator of the
// drand48 family (multiplier 0x5DEECE66D, increment 0xB).
//
// The generator is tiny, fully specified and stable across platforms and Go
// releases, which makes sampled training sets reproducible byte for byte from
// a seed.
package lcg

const (
	multiplier = 0x5DEECE66D
	addend     = 0xB
	mask       = (1 << 48) - 1
)

// Source is a seeded 48-bit LCG. It is not safe for concurrent use.
type Source struct {
	state int64
}

// New returns a generator seeded with seed. The seed is scrambled with the
// multiplier before use.
func New(seed int64) *Source {
	s := &Source{}
	s.Seed(seed)
	return s
}

// Seed resets the generator state.
func (s *Source) Seed(seed int64) {
	s.state = (seed ^ multiplier) & mask
}

// next advances the state and returns its top bits (bits <= 32) as a signed
// 32-bit value.
func (s *Source) next(bits uint) int32 {
	s.state = (s.state*multiplier + addend) & mask
	return int32(uint64(s.state) >> (48 - bits))
}

// Int31n returns a uniform value in [0, n). It panics if n <= 0.
func (s *Source) Int31n(n int32) int32 {
	if n <= 0 {
		panic("lcg: invalid argument to Int31n")
	}

	if n&-n == n { // power of two
		return int32((int64(n) * int64(s.next(31))) >> 31)
	}

	for {
		bits := s.next(31)
		val := bits % n
		// Reject the top partial bucket; the sum overflows int32 exactly there.
		if bits-val+(n-1) >= 0 {
			return val
		}
	}
}

// Float64 returns a uniform value in [0.0, 1.0) with 53 bits of precision.
func (s *Source) Float64() float64 {
	hi := int64(s.next(26))
	lo := int64(s.next(27))
	return float64(hi<<27+lo) * (1.0 / (1 << 53))
}

// Shuffle permutes n elements in place using swap. Elements are visited from
// the back: for i = n down to 2, element i-1 is swapped with Int31n(i).
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n; i > 1; i-- {
		swap(i-1, int(s.Int31n(int32(i))))
	}
}

// Perm returns a permutation of [0, n) built by shuffling the identity.
func (s *Source) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	s.Shuffle(n, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}
