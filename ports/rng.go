package ports

import (
	"math/rand/v2"
)

// RNGPort provides random sources for sequence generation
type RNGPort interface {
	// Shared returns the process-wide source. It is safe for concurrent use.
	Shared() rand.Source

	// Seeded returns a fresh deterministic source owned by the caller
	Seeded(seed uint64) rand.Source

	// Stream derives a deterministic source for one replicate of a named batch,
	// so concurrent replicates reproduce regardless of scheduling
	Stream(baseSeed uint64, name string, index int) rand.Source

	// NewSeed draws a seed from the shared source
	NewSeed() uint64
}
