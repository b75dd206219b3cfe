package ports

import (
	"math/rand/v2"

	"qcgen/domain/qc"
)

// SequenceGenerator synthesizes QC sequences. Params are assumed validated.
// A nil src draws from the process-wide source.
type SequenceGenerator interface {
	Generate(p qc.Params, src rand.Source) []float64
}
