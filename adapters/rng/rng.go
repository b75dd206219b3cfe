package rng

import (
	"math/rand/v2"
	"sync"
)

// Adapter implements ports.RNGPort over math/rand/v2 PCG sources
type Adapter struct {
	shared *lockedSource
}

// NewAdapter seeds the shared source from the runtime's entropy
func NewAdapter() *Adapter {
	return &Adapter{shared: &lockedSource{src: rand.NewPCG(rand.Uint64(), rand.Uint64())}}
}

// NewSeededAdapter pins the shared source too, for reproducible tests
func NewSeededAdapter(seed uint64) *Adapter {
	return &Adapter{shared: &lockedSource{src: newPCG(seed)}}
}

// Shared returns the process-wide source
func (a *Adapter) Shared() rand.Source {
	return a.shared
}

// Seeded returns a fresh deterministic source
func (a *Adapter) Seeded(seed uint64) rand.Source {
	return newPCG(seed)
}

// Stream derives a replicate source by hashing name into the base seed
func (a *Adapter) Stream(baseSeed uint64, name string, index int) rand.Source {
	seed := baseSeed
	if name != "" {
		seed += uint64(hashString(name))
	}
	return rand.NewPCG(seed, uint64(index)+1)
}

// NewSeed draws a seed from the shared source
func (a *Adapter) NewSeed() uint64 {
	return a.shared.Uint64()
}

func newPCG(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// lockedSource serializes access so the shared source survives concurrent runs
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
