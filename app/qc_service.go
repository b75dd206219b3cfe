package app

import (
	"context"
	"time"

	"qcgen/domain/core"
	"qcgen/domain/qc"
	"qcgen/internal"
	"qcgen/internal/errors"
	"qcgen/ports"
)

// QCService validates parameters, synthesizes a sequence and evaluates it
type QCService struct {
	generator ports.SequenceGenerator
	evaluator ports.RuleEvaluator
	rngPort   ports.RNGPort
	logger    *internal.Logger
	now       func() time.Time
}

// NewQCService creates a QC run service
func NewQCService(generator ports.SequenceGenerator, evaluator ports.RuleEvaluator, rngPort ports.RNGPort, logger *internal.Logger) *QCService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &QCService{
		generator: generator,
		evaluator: evaluator,
		rngPort:   rngPort,
		logger:    logger.With("QCService"),
		now:       time.Now,
	}
}

// Generate returns a fresh sequence, or INVALID_PARAMETER before any draw.
func (s *QCService) Generate(ctx context.Context, p qc.Params) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		s.logger.Warn("rejected parameters: %v", err)
		return nil, err
	}

	src := s.rngPort.Shared()
	if p.Seed != nil {
		src = s.rngPort.Seeded(*p.Seed)
	}
	values := s.generator.Generate(p, src)
	if len(values) != p.NumPoints {
		return nil, errors.InternalError("generator returned a sequence of the wrong length")
	}
	return values, nil
}

// Evaluate applies the enabled rules to a caller-supplied sequence.
func (s *QCService) Evaluate(values []float64, target, stdDev float64, enabled qc.RuleSet) qc.Report {
	return s.evaluator.Evaluate(values, target, stdDev, enabled)
}

// Run generates and evaluates in one step. A validation failure returns no run.
func (s *QCService) Run(ctx context.Context, p qc.Params, enabled qc.RuleSet) (*qc.Run, error) {
	values, err := s.Generate(ctx, p)
	if err != nil {
		return nil, err
	}

	sd := p.StdDev()
	run := &qc.Run{
		ID:          core.NewRunID(),
		Params:      p,
		Fingerprint: p.Fingerprint(),
		StdDev:      sd,
		Values:      values,
		Report:      s.evaluator.Evaluate(values, p.Target, sd, enabled),
		GeneratedAt: s.now().UTC(),
	}

	if run.Report.AnyViolated {
		s.logger.Info("run %s (%s): %d points, violated %v", run.ID, run.Fingerprint.Short(), len(values), run.Report.ViolatedRules())
	} else {
		s.logger.Info("run %s (%s): %d points, all enabled rules passed", run.ID, run.Fingerprint.Short(), len(values))
	}
	return run, nil
}

// Deliver generates a run and hands its values to sink in sequence order.
// The run is returned even when delivery is interrupted.
func (s *QCService) Deliver(ctx context.Context, p qc.Params, enabled qc.RuleSet, sink ports.ValueSink) (*qc.Run, error) {
	run, err := s.Run(ctx, p, enabled)
	if err != nil {
		return nil, err
	}
	if err := sink.Send(ctx, run.Values); err != nil {
		return run, errors.Wrapf(err, "delivery of run %s stopped", run.ID)
	}
	return run, nil
}
