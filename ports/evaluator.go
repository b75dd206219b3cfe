package ports

import (
	"qcgen/domain/qc"
)

// RuleEvaluator applies the enabled Westgard rules to a sequence
type RuleEvaluator interface {
	Evaluate(values []float64, target, stdDev float64, enabled qc.RuleSet) qc.Report
}
