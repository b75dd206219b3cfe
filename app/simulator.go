package app

import (
	"context"
	"runtime"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"qcgen/domain/core"
	"qcgen/domain/qc"
	"qcgen/internal"
	"qcgen/internal/errors"
	"qcgen/ports"
)

const replicateStream = "replicate"

// SimulationRequest asks for Runs independent replicates at fixed parameters
type SimulationRequest struct {
	Params  qc.Params  `json:"params"`
	Enabled qc.RuleSet `json:"enabled"`
	Runs    int        `json:"runs"`
	Seed    *uint64    `json:"seed,omitempty"` // base seed; drawn when absent
	Workers int        `json:"workers,omitempty"`
}

// RuleRate is how often one rule rejected a replicate
type RuleRate struct {
	Rule       qc.RuleID `json:"rule"`
	Enabled    bool      `json:"enabled"`
	Rejections int       `json:"rejections"`
	Rate       float64   `json:"rate"`
}

// SimulationResult summarizes a Monte-Carlo batch
type SimulationResult struct {
	ID            core.SimulationID `json:"id"`
	Runs          int               `json:"runs"`
	Seed          uint64            `json:"seed"`
	Rates         []RuleRate        `json:"rates"`
	AnyRejections int               `json:"any_rejections"`
	AnyRate       float64           `json:"any_rate"`
	MeanOfMeans   float64           `json:"mean_of_means"`
	SDOfMeans     float64           `json:"sd_of_means"`
	RuntimeMs     int64             `json:"runtime_ms"`
}

// Simulator estimates per-rule rejection rates by repeated generation
type Simulator struct {
	generator ports.SequenceGenerator
	evaluator ports.RuleEvaluator
	rngPort   ports.RNGPort
	maxRuns   int
	workers   int
	logger    *internal.Logger
}

// NewSimulator creates a simulator. workers <= 0 uses GOMAXPROCS.
func NewSimulator(generator ports.SequenceGenerator, evaluator ports.RuleEvaluator, rngPort ports.RNGPort, maxRuns, workers int, logger *internal.Logger) *Simulator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Simulator{
		generator: generator,
		evaluator: evaluator,
		rngPort:   rngPort,
		maxRuns:   maxRuns,
		workers:   workers,
		logger:    logger.With("Simulator"),
	}
}

// Simulate runs the replicates concurrently. Each replicate owns a source
// derived from the base seed and its index, so the result does not depend on
// scheduling or worker count.
func (s *Simulator) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	start := time.Now()

	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	if req.Runs < 1 {
		return nil, errors.InvalidParameter("runs", "must be at least 1, got %d", req.Runs)
	}
	if s.maxRuns > 0 && req.Runs > s.maxRuns {
		return nil, errors.InvalidParameter("runs", "must be at most %d, got %d", s.maxRuns, req.Runs)
	}

	seed := s.baseSeed(req)
	workers := s.workers
	if req.Workers > 0 && req.Workers < workers {
		workers = req.Workers
	}

	p := req.Params
	sd := p.StdDev()
	reports := make([]qc.Report, req.Runs)
	means := make([]float64, req.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < req.Runs; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values := s.generator.Generate(p, s.rngPort.Stream(seed, replicateStream, i))
			reports[i] = s.evaluator.Evaluate(values, p.Target, sd, req.Enabled)
			means[i] = reports[i].Stats.Mean
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "simulation cancelled")
	}

	result := summarize(reports, req.Enabled)
	result.ID = core.NewSimulationID()
	result.Seed = seed
	result.MeanOfMeans, _ = stats.Mean(means)
	if len(means) > 1 {
		result.SDOfMeans, _ = stats.StandardDeviationSample(means)
	}
	result.RuntimeMs = time.Since(start).Milliseconds()

	s.logger.Info("simulation %s: %d runs on %d workers, any-rule rate %.4f (%dms)",
		result.ID, result.Runs, workers, result.AnyRate, result.RuntimeMs)
	return result, nil
}

func (s *Simulator) baseSeed(req SimulationRequest) uint64 {
	switch {
	case req.Seed != nil:
		return *req.Seed
	case req.Params.Seed != nil:
		return *req.Params.Seed
	default:
		return s.rngPort.NewSeed()
	}
}

func summarize(reports []qc.Report, enabled qc.RuleSet) *SimulationResult {
	n := len(reports)
	result := &SimulationResult{Runs: n}

	counts := make(map[qc.RuleID]int, len(qc.AllRules()))
	for _, r := range reports {
		for _, id := range r.ViolatedRules() {
			counts[id]++
		}
		if r.AnyViolated {
			result.AnyRejections++
		}
	}

	for _, id := range qc.AllRules() {
		result.Rates = append(result.Rates, RuleRate{
			Rule:       id,
			Enabled:    enabled.Enabled(id),
			Rejections: counts[id],
			Rate:       float64(counts[id]) / float64(n),
		})
	}
	result.AnyRate = float64(result.AnyRejections) / float64(n)
	return result
}
