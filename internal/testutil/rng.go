package testutil

import "math/rand/v2"

// DefaultSeed is the RNG seed used when a test does not care which one.
const DefaultSeed uint64 = 42

// NewRNG returns a PCG-backed random source with a fixed seed, so
// stochastic tests replay identically.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}
