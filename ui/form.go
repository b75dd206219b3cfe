package ui

import (
	"net/url"
	"strconv"
	"strings"

	"qcgen/domain/qc"
	"qcgen/internal/errors"
)

// Form field names, shared by the query-string endpoint and the CLI flags
const (
	FieldTarget       = "target"
	FieldCVPercent    = "cv_percent"
	FieldBias         = "bias"
	FieldDrift        = "drift"
	FieldPoints       = "points"
	FieldDistribution = "distribution"
	FieldRules        = "rules"
	FieldSeed         = "seed"
)

// ParseForm turns free-text form fields into run parameters. Blank fields keep
// the value from defaults; CV is entered as a percentage.
func ParseForm(values url.Values, defaults qc.Params, lenient bool) (qc.Params, qc.RuleSet, error) {
	p := defaults
	var err error

	if p.Target, err = floatField(values, FieldTarget, p.Target); err != nil {
		return qc.Params{}, 0, err
	}
	cvPercent, err := floatField(values, FieldCVPercent, p.CV*100)
	if err != nil {
		return qc.Params{}, 0, err
	}
	p.CV = cvPercent / 100
	if p.Bias, err = floatField(values, FieldBias, p.Bias); err != nil {
		return qc.Params{}, 0, err
	}
	if p.DriftRate, err = floatField(values, FieldDrift, p.DriftRate); err != nil {
		return qc.Params{}, 0, err
	}
	if raw := field(values, FieldPoints); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return qc.Params{}, 0, errors.ParseFailure(FieldPoints, raw, err)
		}
		p.NumPoints = n
	}
	if raw := field(values, FieldDistribution); raw != "" {
		if p.Distribution, err = qc.ParseDistribution(raw, lenient); err != nil {
			return qc.Params{}, 0, err
		}
	}
	if raw := field(values, FieldSeed); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return qc.Params{}, 0, errors.ParseFailure(FieldSeed, raw, err)
		}
		p = p.WithSeed(seed)
	}

	rules := qc.AllRulesEnabled()
	if values.Has(FieldRules) {
		if rules, err = qc.ParseRuleSet(values.Get(FieldRules)); err != nil {
			return qc.Params{}, 0, err
		}
	}

	if err := p.Validate(); err != nil {
		return qc.Params{}, 0, err
	}
	return p, rules, nil
}

func field(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

func floatField(values url.Values, name string, fallback float64) (float64, error) {
	raw := field(values, name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ParseFailure(name, raw, err)
	}
	return v, nil
}
