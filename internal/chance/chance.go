// Package chance provides the injectable randomness used by a game session.
//
// Every probability roll and random selection in a session goes through a
// single Source so tests can script outcomes deterministically.
package chance

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source is the randomness a session draws from.
type Source interface {
	// Float64 returns a number in [0, 1).
	Float64() float64
	// IntN returns a number in [0, n). n must be positive.
	IntN(n int) int
	// Shuffle permutes n elements using swap.
	Shuffle(n int, swap func(i, j int))
}

// New returns a PCG-backed Source seeded with seed.
func New(seed int64) Source {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Roll reports whether an event with probability p happens.
func Roll(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniformly random element of items. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Sample returns up to k elements of items chosen uniformly without replacement.
// items is not modified.
func Sample[T any](src Source, items []T, k int) []T {
	pool := append([]T(nil), items...)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
