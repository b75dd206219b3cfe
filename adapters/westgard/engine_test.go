package westgard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcgen/domain/qc"
	"qcgen/internal"
)

const (
	target = 100.0
	sd     = 2.0
)

func flat(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = target
	}
	return values
}

// at places value k SD from target.
func at(k float64) float64 { return target + k*sd }

func newTestEngine() *Engine {
	return NewEngine(internal.NewLogger(internal.LogLevelError))
}

func violated(r qc.Report) []qc.RuleID { return r.ViolatedRules() }

func TestEvaluate_ReportHasAllSevenKeys(t *testing.T) {
	engine := newTestEngine()
	for _, enabled := range []qc.RuleSet{0, qc.AllRulesEnabled(), qc.NewRuleSet(qc.Rule7T)} {
		report := engine.Evaluate(flat(31), target, sd, enabled)
		assert.Len(t, report.Violations, 7)
		for _, id := range qc.AllRules() {
			_, ok := report.Violations[id]
			assert.True(t, ok, "missing %s", id)
		}
	}
}

func TestEvaluate_AllDisabledReportsNothing(t *testing.T) {
	values := flat(31)
	values[3] = at(5)
	values[4] = at(-5)

	report := newTestEngine().Evaluate(values, target, sd, 0)
	assert.False(t, report.AnyViolated)
	assert.Empty(t, violated(report))
}

func TestEvaluate_13s(t *testing.T) {
	values := flat(31)
	values[12] = at(3.5)

	report := newTestEngine().Evaluate(values, target, sd, qc.AllRulesEnabled())
	assert.Equal(t, []qc.RuleID{qc.Rule13s}, violated(report))
	assert.True(t, report.AnyViolated)
}

func TestEvaluate_13sBoundaryIsStrict(t *testing.T) {
	values := flat(5)
	values[2] = at(3)
	assert.False(t, detect13s(values, target, sd))

	values[2] = at(-3.01)
	assert.True(t, detect13s(values, target, sd))
}

func TestEvaluate_22sSameSide(t *testing.T) {
	values := flat(31)
	values[8], values[9] = at(2.5), at(2.5)

	report := newTestEngine().Evaluate(values, target, sd, qc.AllRulesEnabled())
	assert.Equal(t, []qc.RuleID{qc.Rule22s}, violated(report))
}

func TestEvaluate_22sOppositeSidesTriggersR4s(t *testing.T) {
	values := flat(31)
	values[8], values[9] = at(2.5), at(-2.5)

	report := newTestEngine().Evaluate(values, target, sd, qc.AllRulesEnabled())
	assert.False(t, report.Violated(qc.Rule22s))
	assert.True(t, report.Violated(qc.RuleR4s))
	assert.Equal(t, []qc.RuleID{qc.RuleR4s}, violated(report))
}

func TestDetect22s_NonAdjacentDoesNotCount(t *testing.T) {
	values := []float64{at(2.5), target, at(2.5)}
	assert.False(t, detect22s(values, target, sd))
}

func TestDetectR4s(t *testing.T) {
	assert.True(t, detectR4s([]float64{at(-2.1), at(2.1)}, target, sd))
	assert.True(t, detectR4s([]float64{target, at(2.1), at(-2.1)}, target, sd))
	// exactly on the 2 SD line is not beyond it
	assert.False(t, detectR4s([]float64{at(2), at(-2.5)}, target, sd))
	// range is over 4 SD but both on one side
	assert.False(t, detectR4s([]float64{at(2.1), at(6.5)}, target, sd))
	assert.False(t, detectR4s([]float64{at(3)}, target, sd))
}

func TestDetect31sAnd41s(t *testing.T) {
	high3 := []float64{target, at(1.5), at(1.2), at(1.1), target}
	assert.True(t, detect31s(high3, target, sd))
	assert.False(t, detect41s(high3, target, sd))

	low4 := []float64{at(-1.5), at(-1.2), at(-1.1), at(-1.9)}
	assert.True(t, detect31s(low4, target, sd))
	assert.True(t, detect41s(low4, target, sd))

	mixed := []float64{at(1.5), at(-1.5), at(1.5), at(-1.5)}
	assert.False(t, detect31s(mixed, target, sd))
	assert.False(t, detect41s(mixed, target, sd))

	onTheLine := []float64{at(1), at(1.5), at(1.5)}
	assert.False(t, detect31s(onTheLine, target, sd))
}

func TestSameSideBeyond_ZeroDeviationIsNoSide(t *testing.T) {
	// with a zero limit only the sign test matters; a point on target breaks the run
	values := []float64{101, target, 101}
	assert.False(t, sameSideBeyond(values, target, 0, 2))
	assert.True(t, sameSideBeyond([]float64{101, 102}, target, 0, 2))
}

func TestEvaluate_7tIncreasing(t *testing.T) {
	values := []float64{
		target - 0.6, target - 0.4, target - 0.2, target, target + 0.2, target + 0.4, target + 0.6,
	}
	report := newTestEngine().Evaluate(values, target, sd, qc.AllRulesEnabled())
	assert.Equal(t, []qc.RuleID{qc.Rule7T}, violated(report))
}

func TestDetect7T_RawUnits(t *testing.T) {
	assert.True(t, detect7T([]float64{1, 2, 3, 4, 5, 6, 7}, 0, 1))
	assert.True(t, detect7T([]float64{9, 7, 6, 5, 4, 3, 2, 1}, 0, 1))
	assert.False(t, detect7T([]float64{1, 2, 3, 4, 5, 6}, 0, 1))
	// a tie breaks strict monotonicity
	assert.False(t, detect7T([]float64{1, 2, 3, 3, 4, 5, 6}, 0, 1))
	assert.False(t, detect7T([]float64{1, 2, 3, 4, 3, 5, 6, 7, 8, 9}, 0, 1))
	assert.True(t, detect7T([]float64{5, 1, 2, 3, 4, 5, 6, 7}, 0, 1))
}

func TestEvaluate_10x(t *testing.T) {
	above := make([]float64, 10)
	for i := range above {
		above[i] = at(0.1)
	}
	report := newTestEngine().Evaluate(above, target, sd, qc.AllRulesEnabled())
	assert.Equal(t, []qc.RuleID{qc.Rule10X}, violated(report))

	broken := append([]float64{}, above[:9]...)
	broken = append(broken, at(-0.1))
	report = newTestEngine().Evaluate(broken, target, sd, qc.AllRulesEnabled())
	assert.False(t, report.Violated(qc.Rule10X))
}

func TestDetect10X_PointOnTargetBreaksRun(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = at(-0.2)
	}
	values[7] = target
	assert.False(t, detect10X(values, target, sd))

	values[7] = at(-0.2)
	assert.True(t, detect10X(values, target, sd))
}

func TestEvaluate_InsufficientLength(t *testing.T) {
	engine := newTestEngine()
	increasing := []float64{1, 2, 3, 4, 5}
	report := engine.Evaluate(increasing, 0, 100, qc.AllRulesEnabled())
	assert.False(t, report.Violated(qc.Rule7T))
	assert.False(t, report.Violated(qc.Rule10X))

	single := engine.Evaluate([]float64{at(1.5)}, target, sd, qc.AllRulesEnabled())
	assert.False(t, single.AnyViolated)
}

func TestEvaluate_DisabledRuleNotInvoked(t *testing.T) {
	values := flat(31)
	values[0] = at(4)

	enabled := qc.AllRulesEnabled().Without(qc.Rule13s)
	report := newTestEngine().Evaluate(values, target, sd, enabled)
	assert.False(t, report.Violated(qc.Rule13s))
	assert.False(t, report.AnyViolated)
	assert.Equal(t, enabled, report.Enabled)
}

func TestEvaluate_EmptySequence(t *testing.T) {
	report := newTestEngine().Evaluate(nil, target, sd, qc.AllRulesEnabled())
	assert.False(t, report.AnyViolated)
	assert.Len(t, report.Violations, 7)
	assert.True(t, math.IsNaN(report.Stats.Mean))
	assert.True(t, math.IsNaN(report.Stats.SD))
	assert.True(t, math.IsNaN(report.Stats.CVPercent))
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{98, 100, 102})
	assert.InDelta(t, 100.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.SD, 1e-12)
	assert.InDelta(t, 2.0, s.CVPercent, 1e-12)

	one := Describe([]float64{42})
	assert.Equal(t, 42.0, one.Mean)
	assert.True(t, math.IsNaN(one.SD))

	zeroMean := Describe([]float64{-1, 1})
	assert.Equal(t, 0.0, zeroMean.Mean)
	assert.Equal(t, 0.0, zeroMean.CVPercent)
}

func TestRulesTable(t *testing.T) {
	table := Rules()
	require.Len(t, table, 7)
	for i, id := range qc.AllRules() {
		assert.Equal(t, id, table[i].ID)
		assert.NotEmpty(t, table[i].Description)
	}

	r, ok := Lookup(qc.Rule10X)
	require.True(t, ok)
	assert.Equal(t, 10, r.Window)
	_, ok = Lookup("8x")
	assert.False(t, ok)
}

func TestLeveyJennings(t *testing.T) {
	chart := LeveyJennings([]float64{99.5, 101.2}, target, sd)
	assert.Equal(t, []ChartPoint{{Day: 1, Value: 99.5}, {Day: 2, Value: 101.2}}, chart.Points)
	assert.Equal(t, 106.0, chart.Lines.Plus3SD)
	assert.Equal(t, 96.0, chart.Lines.Minus2SD)
	assert.Equal(t, 98.0, chart.Lines.Minus1SD)
}
