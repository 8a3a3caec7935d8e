// Package rng abstracts the random source used by maze generation, spawn
// placement and seeker behaviour so tests can pin it.
package rng

import (
	"math/rand"
	"sync"
)

// Source is the subset of *rand.Rand the game uses.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// New returns a seeded source. It is not safe for concurrent use.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Locked wraps a Source with a mutex for sharing across goroutines.
type Locked struct {
	mu  sync.Mutex
	src Source
}

func NewLocked(src Source) *Locked { return &Locked{src: src} }

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Script replays fixed values. Intn returns ints[i] modulo n; Float64 returns
// floats[j]. Both wrap around when exhausted. Used in tests.
type Script struct {
	Ints   []int
	Floats []float64
	i, j   int
}

func (s *Script) Intn(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.i%len(s.Ints)]
	s.i++
	return ((v % n) + n) % n
}

func (s *Script) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.j%len(s.Floats)]
	s.j++
	return v
}
