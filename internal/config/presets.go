package config

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"qcgen/domain/qc"
	"qcgen/internal/errors"
)

// Preset is a named parameter set for a common QC scenario
type Preset struct {
	Name         string  `yaml:"name" json:"name"`
	Description  string  `yaml:"description,omitempty" json:"description,omitempty"`
	Target       float64 `yaml:"target" json:"target"`
	CVPercent    float64 `yaml:"cv_percent" json:"cv_percent"`
	Bias         float64 `yaml:"bias" json:"bias"`
	DriftRate    float64 `yaml:"drift_rate" json:"drift_rate"`
	Distribution string  `yaml:"distribution" json:"distribution"`
	Rules        string  `yaml:"rules,omitempty" json:"rules,omitempty"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Params converts the preset into validated run parameters
func (p Preset) Params(numPoints int, lenient bool) (qc.Params, error) {
	dist := qc.Normal
	if p.Distribution != "" {
		parsed, err := qc.ParseDistribution(p.Distribution, lenient)
		if err != nil {
			return qc.Params{}, errors.Wrapf(err, "preset %s", p.Name)
		}
		dist = parsed
	}

	params := qc.Params{
		Target:       p.Target,
		CV:           p.CVPercent / 100,
		NumPoints:    numPoints,
		Bias:         p.Bias,
		DriftRate:    p.DriftRate,
		Distribution: dist,
	}
	if err := params.Validate(); err != nil {
		return qc.Params{}, errors.Wrapf(err, "preset %s", p.Name)
	}
	return params, nil
}

// RuleSet returns the rules the preset enables, all of them when unset
func (p Preset) RuleSet() (qc.RuleSet, error) {
	if p.Rules == "" {
		return qc.AllRulesEnabled(), nil
	}
	return qc.ParseRuleSet(p.Rules)
}

// Presets is an ordered, name-addressable preset catalogue
type Presets struct {
	list []Preset
}

// BuiltinPresets covers the scenarios shipped with the tool
func BuiltinPresets() *Presets {
	return &Presets{list: []Preset{
		{Name: "in-control", Description: "Stable process on target", Target: 100, CVPercent: 2, Distribution: "Normal"},
		{Name: "shift", Description: "Systematic bias of 2.5 SD", Target: 100, CVPercent: 2, Bias: 5, Distribution: "Normal"},
		{Name: "drift", Description: "Gradual upward trend", Target: 100, CVPercent: 2, DriftRate: 0.3, Distribution: "Normal"},
		{Name: "skewed", Description: "Right-skewed measurements", Target: 100, CVPercent: 5, Distribution: "LogNormal"},
	}}
}

// LoadPresets reads presets from a YAML file
func LoadPresets(path string) (*Presets, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("presets file " + path)
		}
		return nil, errors.Wrap(err, "failed to open presets file")
	}
	defer f.Close()
	return ParsePresets(f)
}

// ParsePresets decodes a YAML presets document
func ParsePresets(r io.Reader) (*Presets, error) {
	var doc presetFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, &errors.AppError{Code: errors.CodeParseFailure, Field: "presets", Message: "malformed YAML", Cause: err}
	}

	seen := make(map[string]bool, len(doc.Presets))
	for i, p := range doc.Presets {
		if p.Name == "" {
			return nil, errors.InvalidParameter("presets", "preset %d has no name", i+1)
		}
		if seen[p.Name] {
			return nil, errors.InvalidParameter("presets", "duplicate preset %q", p.Name)
		}
		seen[p.Name] = true
	}
	return &Presets{list: doc.Presets}, nil
}

// LoadPresetsOrBuiltin loads QC_PRESETS_FILE when set, else the builtin catalogue
func (c *Config) LoadPresetsOrBuiltin() (*Presets, error) {
	if c.QC.PresetsFile == "" {
		return BuiltinPresets(), nil
	}
	return LoadPresets(c.QC.PresetsFile)
}

// List returns the presets in file order
func (ps *Presets) List() []Preset {
	out := make([]Preset, len(ps.list))
	copy(out, ps.list)
	return out
}

// Get finds a preset by name
func (ps *Presets) Get(name string) (Preset, error) {
	for _, p := range ps.list {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, errors.NotFound("preset " + name)
}
