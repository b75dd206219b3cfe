package app

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcgen/adapters/rng"
	"qcgen/adapters/synth"
	"qcgen/adapters/westgard"
	"qcgen/domain/qc"
	"qcgen/internal"
	"qcgen/internal/errors"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func newTestService() *QCService {
	return NewQCService(synth.NewGenerator(), westgard.NewEngine(quiet), rng.NewAdapter(), quiet)
}

// shortGenerator drops the last value to exercise the length guard
type shortGenerator struct{}

func (shortGenerator) Generate(p qc.Params, src rand.Source) []float64 {
	return make([]float64, p.NumPoints-1)
}

func TestQCService_GenerateLength(t *testing.T) {
	svc := newTestService()
	for _, n := range []int{1, 10, 31, 365} {
		p := qc.DefaultParams()
		p.NumPoints = n
		values, err := svc.Generate(context.Background(), p)
		require.NoError(t, err)
		assert.Len(t, values, n)
	}
}

func TestQCService_GenerateRejectsInvalidParams(t *testing.T) {
	svc := newTestService()
	bad := []qc.Params{
		{Target: 0, CV: 0.02, NumPoints: 31},
		{Target: 100, CV: 0.2, NumPoints: 31},
		{Target: 100, CV: 0.02, NumPoints: 0},
		{Target: 100, CV: 0.02, NumPoints: 31, DriftRate: -2},
	}
	for _, p := range bad {
		values, err := svc.Generate(context.Background(), p)
		assert.Nil(t, values)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter), "%+v: %v", p, err)

		run, err := svc.Run(context.Background(), p, qc.AllRulesEnabled())
		assert.Nil(t, run)
		assert.Error(t, err)
	}
}

func TestQCService_SeededRunsReproduce(t *testing.T) {
	svc := newTestService()
	p := qc.DefaultParams().WithSeed(31337)
	p.Distribution = qc.LogNormal

	first, err := svc.Run(context.Background(), p, qc.AllRulesEnabled())
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), p, qc.AllRulesEnabled())
	require.NoError(t, err)

	assert.Equal(t, first.Values, second.Values)
	assert.Equal(t, first.Report, second.Report)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestQCService_RunPopulatesReport(t *testing.T) {
	svc := newTestService()
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p := qc.DefaultParams().WithSeed(1)
	run, err := svc.Run(context.Background(), p, qc.NewRuleSet(qc.Rule13s))
	require.NoError(t, err)

	assert.Equal(t, fixed, run.GeneratedAt)
	assert.InDelta(t, 2.0, run.StdDev, 1e-12)
	assert.Len(t, run.Values, 31)
	assert.Len(t, run.Report.Violations, 7)
	assert.Equal(t, qc.NewRuleSet(qc.Rule13s), run.Report.Enabled)
	assert.False(t, run.Report.Violated(qc.Rule22s))
	assert.False(t, run.ID.String() == "")
}

func TestQCService_StrongBiasTrips13s(t *testing.T) {
	svc := newTestService()
	p := qc.DefaultParams().WithSeed(5)
	p.Bias = 20 // 10 SD above target

	run, err := svc.Run(context.Background(), p, qc.AllRulesEnabled())
	require.NoError(t, err)
	assert.True(t, run.Report.Violated(qc.Rule13s))
	assert.True(t, run.Report.Violated(qc.Rule10X))
	assert.True(t, run.Report.AnyViolated)
}

func TestQCService_Evaluate(t *testing.T) {
	svc := newTestService()
	report := svc.Evaluate([]float64{100, 107, 100}, 100, 2, qc.AllRulesEnabled())
	assert.Equal(t, []qc.RuleID{qc.Rule13s}, report.ViolatedRules())
}

func TestQCService_CancelledContext(t *testing.T) {
	svc := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, qc.DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQCService_LengthGuard(t *testing.T) {
	svc := NewQCService(shortGenerator{}, westgard.NewEngine(quiet), rng.NewAdapter(), quiet)
	_, err := svc.Generate(context.Background(), qc.DefaultParams())
	assert.Equal(t, errors.CodeInternalError, errors.GetCode(err))
}
