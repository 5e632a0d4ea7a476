package shape

import "math/rand/v2"

// Rand is the minimal random source the Shape contract needs. It is
// satisfied by *rand.Rand (math/rand/v2), so callers can pass a
// deterministically-seeded source without this package knowing about
// seeding policy.
type Rand interface {
	Float64() float64
}

// NewDeterministicRand builds a reproducible random source from a global
// seed plus a stage-unique salt, per spec.md 5 ("Determinism under
// parallelism"): streams must never come from a thread-local source.
func NewDeterministicRand(seed uint64, salt uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, salt))
}

// hashStream produces a deterministic, re-entrant sequence of uint64s from
// a seed. It backs RandomPointsFromSeed, where the spec requires "two
// hashes per point" rather than a stateful RNG walk, so that point k's
// coordinates don't depend on having generated points 0..k-1 in order.
type hashStream struct {
	seed uint64
}

// splitmix64, the standard fast-forwardable hash used to seed PCG/xoshiro
// generators; used here only as a pure index -> uint64 hash, not as a
// stream, so any two calls commute.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (h hashStream) at(i uint64) uint64 {
	return splitmix64(h.seed ^ splitmix64(i))
}

func (h hashStream) float64At(i uint64) float64 {
	return float64(h.at(i)>>11) / (1 << 53)
}
