package random

import "sync"

// Sequence is a Source that replays fixed values in order, cycling when it
// runs out. It makes engine outcomes reproducible in tests and replays.
type Sequence struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	ii, fi int
}

// NewSequence returns a Sequence that yields ints from Int and floats from
// Float64. An empty list yields min (for Int) or 0 (for Float64).
func NewSequence(ints []int, floats []float64) *Sequence {
	return &Sequence{
		ints:   append([]int(nil), ints...),
		floats: append([]float64(nil), floats...),
	}
}

// Int returns the next int clamped into [min, max].
func (s *Sequence) Int(min, max int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ints) == 0 {
		return min
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++

	switch {
	case v < min:
		return min
	case v > max:
		return max
	default:
		return v
	}
}

// Float64 returns the next float clamped into [0, 1).
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++

	switch {
	case v < 0:
		return 0
	case v >= 1:
		return 0.9999999999
	default:
		return v
	}
}
