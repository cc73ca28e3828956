// Package rng provides the seedable random source used by the simulation.
// All stochastic behavior (event rolls, demand noise, pricing jitter) flows
// through a single *Source so a fixed seed reproduces an entire game.
package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source wraps math/rand with a mutex so it can be shared across the turn
// pipeline. It is not intended for cryptographic use.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source seeded with the provided seed. A zero seed falls back
// to the wall clock, matching the "unseeded" configuration default.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a pseudo-random float in [0.0, 1.0).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// IntN returns a pseudo-random int in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Between returns a pseudo-random float in [lo, hi).
func (s *Source) Between(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.Float64()*(hi-lo)
}

// Range returns a pseudo-random int in [min, max] inclusive.
func (s *Source) Range(min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.r.Intn(max-min+1)
}
