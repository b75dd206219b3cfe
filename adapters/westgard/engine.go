package westgard

import (
	"math"

	"github.com/montanaflynn/stats"

	"qcgen/domain/qc"
	"qcgen/internal"
)

// Engine evaluates the Westgard rule table over a QC sequence
type Engine struct {
	rules  []Rule
	logger *internal.Logger
}

// NewEngine creates a rule engine over the canonical rule table
func NewEngine(logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{rules: Rules(), logger: logger.With("Westgard")}
}

// Evaluate runs every enabled detector. Disabled rules and rules whose window
// is longer than the sequence are reported as not violated.
func (e *Engine) Evaluate(values []float64, target, stdDev float64, enabled qc.RuleSet) qc.Report {
	report := qc.NewReport(enabled)

	for _, rule := range e.rules {
		if !enabled.Enabled(rule.ID) {
			continue
		}
		if len(values) < rule.Window {
			e.logger.Trace("%s skipped: %d points < window %d", rule.ID, len(values), rule.Window)
			continue
		}
		if rule.Detect(values, target, stdDev) {
			report.Violations[rule.ID] = true
			report.AnyViolated = true
		}
	}

	report.Stats = Describe(values)
	e.logger.Debug("evaluated %d points against %d rules, violated=%v", len(values), len(enabled.IDs()), report.ViolatedRules())
	return report
}

// Describe computes mean, sample SD and CV% of values. An empty sequence gives
// NaN throughout and a single point leaves SD and CV undefined. A zero mean
// reports CV as 0.
func Describe(values []float64) qc.Stats {
	out := qc.Stats{Mean: math.NaN(), SD: math.NaN(), CVPercent: math.NaN()}

	mean, err := stats.Mean(values)
	if err != nil {
		return out
	}
	out.Mean = mean
	if len(values) < 2 {
		return out
	}

	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return out
	}
	out.SD = sd
	out.CVPercent = CVPercent(mean, sd)
	return out
}

// CVPercent is sd/mean*100, or 0 when the mean is zero.
func CVPercent(mean, sd float64) float64 {
	if mean == 0 {
		return 0
	}
	return sd / mean * 100
}
