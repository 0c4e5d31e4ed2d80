// Package chancetest provides a scripted chance.Source for tests.
package chancetest

// Scripted replays queued values. When a queue runs dry Float64 returns
// 0.99 (no roll succeeds) and IntN returns 0.
type Scripted struct {
	Floats []float64
	Ints   []int
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0.99
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

func (s *Scripted) IntN(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

// Shuffle leaves the order unchanged.
func (s *Scripted) Shuffle(n int, swap func(i, j int)) {}
