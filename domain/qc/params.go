package qc

import (
	"fmt"
	"math"
	"strings"

	"qcgen/domain/core"
	"qcgen/internal/errors"
)

// Distribution selects the family each daily value is drawn from.
type Distribution int

const (
	Normal Distribution = iota
	LogNormal
)

// Parameter domain limits.
const (
	DefaultNumPoints = 31
	MaxCV            = 0.10
	MaxDriftRate     = 1.0
)

func (d Distribution) String() string {
	switch d {
	case Normal:
		return "Normal"
	case LogNormal:
		return "LogNormal"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// Valid reports whether d is one of the declared families.
func (d Distribution) Valid() bool {
	return d == Normal || d == LogNormal
}

// ParseDistribution accepts "Normal", "LogNormal" and spellings such as
// "log-normal" or "Log Normal". With lenient set, unrecognized names resolve
// to Normal instead of failing.
func ParseDistribution(s string, lenient bool) (Distribution, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "normal", "gaussian":
		return Normal, nil
	case "lognormal":
		return LogNormal, nil
	}
	if lenient {
		return Normal, nil
	}
	return Normal, errors.InvalidParameter("distribution", "unknown distribution %q (want Normal or LogNormal)", s)
}

func (d Distribution) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.InvalidParameter("distribution", "cannot encode %s", d)
	}
	return []byte(d.String()), nil
}

func (d *Distribution) UnmarshalText(text []byte) error {
	parsed, err := ParseDistribution(string(text), false)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Params is the immutable input of one QC run.
type Params struct {
	Target       float64      `json:"target"`
	CV           float64      `json:"cv"` // fraction, 0.02 means 2%
	NumPoints    int          `json:"num_points"`
	Bias         float64      `json:"bias"`
	DriftRate    float64      `json:"drift_rate"`
	Distribution Distribution `json:"distribution"`
	Seed         *uint64      `json:"seed,omitempty"`
}

// DefaultParams mirrors the bench defaults: target 100, CV 2%, 31 days.
func DefaultParams() Params {
	return Params{
		Target:       100,
		CV:           0.02,
		NumPoints:    DefaultNumPoints,
		Distribution: Normal,
	}
}

// StdDev is the dispersion of every step; it does not drift.
func (p Params) StdDev() float64 {
	return p.Target * p.CV
}

// MeanAt returns the running mean of step i (0-indexed).
func (p Params) MeanAt(i int) float64 {
	return p.Target + p.Bias + float64(i)*p.DriftRate
}

// WithSeed returns a copy of p pinned to seed.
func (p Params) WithSeed(seed uint64) Params {
	p.Seed = &seed
	return p
}

// Fingerprint identifies the parameter set. Equal fingerprints with a seed
// produce identical sequences.
func (p Params) Fingerprint() core.Hash {
	fields := map[string]interface{}{
		"target":       p.Target,
		"cv":           p.CV,
		"num_points":   p.NumPoints,
		"bias":         p.Bias,
		"drift_rate":   p.DriftRate,
		"distribution": p.Distribution.String(),
	}
	if p.Seed != nil {
		fields["seed"] = *p.Seed
	}
	return core.Fingerprint(fields)
}

// Validate checks every precondition of generation.
func (p Params) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"target", p.Target},
		{"cv", p.CV},
		{"bias", p.Bias},
		{"drift_rate", p.DriftRate},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.InvalidParameter(f.name, "must be a finite number")
		}
	}

	if p.Target <= 0 {
		return errors.InvalidParameter("target", "must be positive, got %g", p.Target)
	}
	if p.CV <= 0 || p.CV > MaxCV {
		return errors.InvalidParameter("cv", "must be in (0, %.2f], got %g", MaxCV, p.CV)
	}
	if p.NumPoints < 1 {
		return errors.InvalidParameter("num_points", "must be at least 1, got %d", p.NumPoints)
	}
	if math.Abs(p.DriftRate) > MaxDriftRate {
		return errors.InvalidParameter("drift_rate", "must be in [-%.1f, %.1f], got %g", MaxDriftRate, MaxDriftRate, p.DriftRate)
	}
	if !p.Distribution.Valid() {
		return errors.InvalidParameter("distribution", "unknown distribution %s", p.Distribution)
	}
	return nil
}
