// Package random provides the randomness source used by the casino engines
// and the selection helpers built on top of it.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source supplies random values to the engines.
// Implementations substitute a seeded or fixed-sequence source in tests.
type Source interface {
	// Int returns a uniformly distributed integer in [min, max].
	Int(min, max int) int

	// Float64 returns a uniformly distributed float in [0, 1).
	Float64() float64
}

// globalSource reads from the math/rand/v2 top-level generator.
type globalSource struct{}

func (globalSource) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

func (globalSource) Float64() float64 {
	return rand.Float64()
}

// Default returns the process-wide source. It is safe for concurrent use.
func Default() Source {
	return globalSource{}
}

// seededSource is a PCG generator guarded by a mutex.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic source. Two sources created with the
// same seed produce the same sequence.
func NewSeeded(seed uint64) Source {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Int(min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.IntN(max-min+1)
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Int returns a uniformly distributed integer in [min, max] drawn from src.
func Int(src Source, min, max int) int {
	return src.Int(min, max)
}

// Shuffle permutes s in place with Fisher-Yates and returns s.
// The input slice is modified; callers must not expect the original order
// to survive.
func Shuffle[T any](src Source, s []T) []T {
	for i := len(s) - 1; i > 0; i-- {
		j := src.Int(0, i)
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// WeightedChoice returns an index chosen with probability proportional to
// its weight. If the weights sum to zero or less it returns 0.
func WeightedChoice(src Source, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}

	r := src.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}
