package testkit

import (
	"context"
	"sync"

	"qcgen/adapters/rng"
	"qcgen/adapters/synth"
	"qcgen/adapters/westgard"
	"qcgen/app"
	"qcgen/internal"
	"qcgen/internal/config"
)

// DefaultSeed drives the kit's shared source so unseeded runs still repeat
const DefaultSeed uint64 = 42

// DefaultMaxRuns caps simulations started through the kit
const DefaultMaxRuns = 500

// TestKit wires the real adapters behind the services with a quiet logger
// and a deterministic shared source.
type TestKit struct {
	Logger    *internal.Logger
	RNG       *rng.Adapter
	Generator *synth.Generator
	Engine    *westgard.Engine
	QC        *app.QCService
	Simulator *app.Simulator
	Presets   *config.Presets
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	logger := internal.NewLogger(internal.LogLevelError)
	kit := &TestKit{
		Logger:    logger,
		RNG:       rng.NewSeededAdapter(DefaultSeed),
		Generator: synth.NewGenerator(),
		Engine:    westgard.NewEngine(logger),
		Presets:   config.BuiltinPresets(),
	}
	kit.QC = app.NewQCService(kit.Generator, kit.Engine, kit.RNG, logger)
	kit.Simulator = app.NewSimulator(kit.Generator, kit.Engine, kit.RNG, DefaultMaxRuns, 2, logger)
	return kit
}

// Sequence places each point k standard deviations from target
func Sequence(target, sd float64, ks ...float64) []float64 {
	values := make([]float64, len(ks))
	for i, k := range ks {
		values[i] = target + k*sd
	}
	return values
}

// RecordingSink is an in-memory ports.ValueSink
type RecordingSink struct {
	mu      sync.Mutex
	batches [][]float64
}

// NewRecordingSink creates an empty sink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Send records a copy of values
func (s *RecordingSink) Send(ctx context.Context, values []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]float64(nil), values...))
	return nil
}

// Batches returns everything sent so far, one slice per Send
func (s *RecordingSink) Batches() [][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]float64, len(s.batches))
	copy(out, s.batches)
	return out
}
