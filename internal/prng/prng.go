// Package prng implements the seeded linear congruential generator used for
// pattern layout. Its output matches the p5.js randomSeed/random stream
// draw-for-draw, so a stored seed reproduces a pattern exactly.
package prng

const (
	modulus    = 4294967296
	multiplier = 1664525
	increment  = 1013904223
)

// Source is a deterministic stream of uniform floats in [0,1).
// A Source is not safe for concurrent use; callers own it and pass it down.
type Source struct {
	state uint32
}

// New returns a Source seeded with seed.
func New(seed int64) *Source {
	s := &Source{}
	s.Seed(seed)
	return s
}

// Seed resets the stream. Only the low 32 bits of seed are significant.
func (s *Source) Seed(seed int64) {
	s.state = uint32(seed)
}

// Float64 advances the stream and returns a value in [0,1).
func (s *Source) Float64() float64 {
	next := (multiplier*uint64(s.state) + increment) % modulus
	s.state = uint32(next)
	return float64(next) / modulus
}

// Scale returns a value in [0,n).
func (s *Source) Scale(n float64) float64 {
	return s.Float64() * n
}

// Between returns a value in [a,b). Bounds given in the wrong order are
// swapped.
func (s *Source) Between(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	return s.Float64()*(b-a) + a
}
