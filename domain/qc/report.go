package qc

import (
	"encoding/json"
	"math"
	"time"

	"qcgen/domain/core"
)

// Stats are plain descriptive statistics of a sequence. Undefined values are NaN.
type Stats struct {
	Mean      float64
	SD        float64 // sample standard deviation (n-1)
	CVPercent float64
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON writes undefined statistics as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean      *float64 `json:"mean"`
		SD        *float64 `json:"sd"`
		CVPercent *float64 `json:"cv_percent"`
	}{nullable(s.Mean), nullable(s.SD), nullable(s.CVPercent)})
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw struct {
		Mean      *float64 `json:"mean"`
		SD        *float64 `json:"sd"`
		CVPercent *float64 `json:"cv_percent"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	orNaN := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	*s = Stats{Mean: orNaN(raw.Mean), SD: orNaN(raw.SD), CVPercent: orNaN(raw.CVPercent)}
	return nil
}

// Report is the outcome of one rule evaluation. Violations always holds all
// seven keys; disabled rules are false.
type Report struct {
	Violations  map[RuleID]bool `json:"violations"`
	Enabled     RuleSet         `json:"enabled"`
	AnyViolated bool            `json:"any_violated"`
	Stats       Stats           `json:"stats"`
}

// NewReport builds a report with every rule present and not violated.
func NewReport(enabled RuleSet) Report {
	violations := make(map[RuleID]bool, len(canonicalRules))
	for _, r := range canonicalRules {
		violations[r] = false
	}
	return Report{Violations: violations, Enabled: enabled}
}

// Violated reports the flag for id.
func (r Report) Violated(id RuleID) bool {
	return r.Violations[id]
}

// ViolatedRules lists violated rules in canonical order.
func (r Report) ViolatedRules() []RuleID {
	var out []RuleID
	for _, id := range canonicalRules {
		if r.Violations[id] {
			out = append(out, id)
		}
	}
	return out
}

// Run couples one generated sequence with its evaluation.
type Run struct {
	ID          core.RunID `json:"id"`
	Params      Params     `json:"params"`
	Fingerprint core.Hash  `json:"fingerprint"`
	StdDev      float64    `json:"std_dev"`
	Values      []float64  `json:"values"`
	Report      Report     `json:"report"`
	GeneratedAt time.Time  `json:"generated_at"`
}
