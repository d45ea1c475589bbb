package engine

// DrawsPerDamage is the number of values CalculateDamage consumes from the
// stream on every call, whatever the outcome.
const DrawsPerDamage = 2

// DrawsPerRound is the number of values ResolveRound consumes.
const DrawsPerRound = 2 * DrawsPerDamage

// Rng is a xorshift64* generator. The same seed and call sequence always
// produce the same stream.
type Rng struct {
	state uint64
}

// NewRng scrambles seed through splitmix64 so that small or adjacent seeds
// still start from well mixed, non-zero states.
func NewRng(seed int64) *Rng {
	s := splitmix64(uint64(seed))
	if s == 0 {
		s = 0x9E3779B97F4A7C15
	}
	return &Rng{state: s}
}

// RngForRound returns the stream positioned at the first draw of round.
// Rounds start at 1.
func RngForRound(seed int64, round int) *Rng {
	r := NewRng(seed)
	for i := 0; i < (round-1)*DrawsPerRound; i++ {
		r.Next()
	}
	return r
}

// Next returns a float in [0,1).
func (r *Rng) Next() float64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return float64((x*0x2545F4914F6CDD1D)>>11) / (1 << 53)
}

func splitmix64(x uint64) uint64 {
	z := x + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
