// Package entropy provides the randomness source behind every stochastic
// simulation event: combat losses, war-declaration rolls, agreement
// acceptance, UN votes. Battles are deterministic given a seeded source and
// intentionally irreproducible run-to-run on the ambient source.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Source supplies uniform random values to the simulation.
type Source interface {
	// Float returns a random float64 in [0, 1).
	Float() float64
	// Intn returns a random int in [0, n). n must be > 0.
	Intn(n int) int
}

// seeded wraps math/rand behind a mutex so a single source can serve the
// tick loop and per-war battle steps.
type seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic source. Two sources built from the same
// seed produce identical streams.
func NewSeeded(seed int64) Source {
	return &seeded{rng: rand.New(rand.NewSource(seed))}
}

func (s *seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// ambient draws from crypto/rand. No state, safe for concurrent use.
type ambient struct{}

// Ambient returns the non-reproducible source used outside of tests and
// replays.
func Ambient() Source {
	return ambient{}
}

func (ambient) Float() float64 {
	return cryptoRandFloat()
}

func (ambient) Intn(n int) int {
	return int(cryptoRandFloat() * float64(n))
}

// cryptoRandFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := crand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
