package sweep

import "math/rand"

// SweepKey uniquely identifies a reproducible sweep. Two sweeps with the same
// key, configuration and engine behaviour enumerate identical distribution
// plans and randomized-trial seeds.
type SweepKey int64

// NewSweepKey creates a SweepKey from a seed value.
func NewSweepKey(seed int64) SweepKey {
	return SweepKey(seed)
}

// NewRNG returns the sweep's random stream. Call it once per sweep and pass
// the result down; reseeding mid-sweep breaks reproducibility.
//
// Thread-safety: NOT thread-safe. Must be used from a single goroutine.
func NewRNG(key SweepKey) *rand.Rand {
	return rand.New(rand.NewSource(int64(key)))
}
