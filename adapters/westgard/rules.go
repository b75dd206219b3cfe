package westgard

import (
	"math"

	"qcgen/domain/qc"
)

// Detector is a pure check of one rule over a whole sequence.
type Detector func(values []float64, target, sd float64) bool

// Rule binds a rule identifier to its detector and the number of consecutive
// points it inspects.
type Rule struct {
	ID          qc.RuleID
	Window      int
	Description string
	Detect      Detector
}

// rules is the closed rule set in canonical order.
var rules = []Rule{
	{qc.Rule13s, 1, "One point beyond target ± 3 SD", detect13s},
	{qc.Rule22s, 2, "Two consecutive points beyond 2 SD on the same side of target", detect22s},
	{qc.RuleR4s, 2, "Adjacent points on opposite sides, one above +2 SD and one below -2 SD", detectR4s},
	{qc.Rule31s, 3, "Three consecutive points beyond 1 SD on the same side of target", detect31s},
	{qc.Rule41s, 4, "Four consecutive points beyond 1 SD on the same side of target", detect41s},
	{qc.Rule7T, 7, "Seven consecutive points strictly increasing or strictly decreasing", detect7T},
	{qc.Rule10X, 10, "Ten consecutive points strictly on one side of target", detect10X},
}

// Rules returns the rule table in canonical order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Lookup finds the rule for id.
func Lookup(id qc.RuleID) (Rule, bool) {
	for _, r := range rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

func detect13s(values []float64, target, sd float64) bool {
	limit := 3 * sd
	for _, x := range values {
		if math.Abs(x-target) > limit {
			return true
		}
	}
	return false
}

func detect22s(values []float64, target, sd float64) bool {
	return sameSideBeyond(values, target, 2*sd, 2)
}

func detectR4s(values []float64, target, sd float64) bool {
	upper, lower := target+2*sd, target-2*sd
	for i := 0; i+1 < len(values); i++ {
		a, b := values[i], values[i+1]
		if (a > upper && b < lower) || (a < lower && b > upper) {
			return true
		}
	}
	return false
}

func detect31s(values []float64, target, sd float64) bool {
	return sameSideBeyond(values, target, sd, 3)
}

func detect41s(values []float64, target, sd float64) bool {
	return sameSideBeyond(values, target, sd, 4)
}

// sameSideBeyond reports a window of n consecutive points whose deviations
// all exceed limit and whose pairwise products are strictly positive. A zero
// deviation never counts as a side.
func sameSideBeyond(values []float64, target, limit float64, n int) bool {
	for start := 0; start+n <= len(values); start++ {
		if windowSameSideBeyond(values[start:start+n], target, limit) {
			return true
		}
	}
	return false
}

func windowSameSideBeyond(window []float64, target, limit float64) bool {
	first := window[0] - target
	for _, x := range window {
		d := x - target
		if !(math.Abs(d) > limit) || !(d*first > 0) {
			return false
		}
	}
	return true
}

func detect7T(values []float64, _, _ float64) bool {
	const steps = 6
	up, down := 0, 0
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[i-1]:
			up, down = up+1, 0
		case values[i] < values[i-1]:
			up, down = 0, down+1
		default:
			up, down = 0, 0
		}
		if up >= steps || down >= steps {
			return true
		}
	}
	return false
}

func detect10X(values []float64, target, _ float64) bool {
	const run = 10
	above, below := 0, 0
	for _, x := range values {
		switch {
		case x > target:
			above, below = above+1, 0
		case x < target:
			above, below = 0, below+1
		default:
			above, below = 0, 0
		}
		if above >= run || below >= run {
			return true
		}
	}
	return false
}
