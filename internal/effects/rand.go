package effects

// Source is the randomness the effects draw from. *Rand and *math/rand.Rand
// both satisfy it; tests inject fixed sequences.
type Source interface {
	Float64() float64
}

// Rand is a tiny deterministic RNG (xorshift64*).
type Rand struct {
	s uint64
}

func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

// Derive mixes seed with a stream id so sibling generators seeded from one
// value do not start out correlated.
func Derive(seed, stream uint64) uint64 {
	x := seed ^ stream*0x9E3779B97F4A7C15
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (r *Rand) NextU64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

func (r *Rand) Float64() float64 {
	return float64(r.NextU64()>>11) * (1.0 / (1 << 53))
}

// uniform returns a value in [lo, hi).
func uniform(r Source, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// centered returns a value in [-span/2, span/2).
func centered(r Source, span float64) float64 {
	return (r.Float64() - 0.5) * span
}

// between returns an integer in [lo, hi].
func between(r Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := lo + int(r.Float64()*float64(hi-lo+1))
	if n > hi {
		n = hi
	}
	return n
}
