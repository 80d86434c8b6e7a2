package navigation

import (
	"math/rand/v2"
	"sync"
)

// HeadingSource supplies the destination's random heading each step.
// Implementations shared between goroutines must be safe for concurrent use.
type HeadingSource interface {
	// Uniform returns a value drawn uniformly from [lo, hi).
	// When lo == hi it returns lo.
	Uniform(lo, hi float64) float64
}

// LockedSource is a seedable HeadingSource guarded by a mutex so that
// one instance can be shared by concurrent runs.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedSource returns a source seeded deterministically from seed.
// Two sources built from the same seed produce the same draws.
func NewLockedSource(seed uint64) *LockedSource {
	return &LockedSource{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Uniform draws a value from [lo, hi).
func (s *LockedSource) Uniform(lo, hi float64) float64 {
	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()

	return lo + u*(hi-lo)
}
