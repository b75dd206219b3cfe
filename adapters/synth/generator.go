package synth

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"qcgen/domain/qc"
)

// Generator draws daily QC values around a biased, drifting mean.
type Generator struct{}

// NewGenerator creates a sequence generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns exactly p.NumPoints values in draw order. Input is assumed
// validated; degenerate values never panic.
func (g *Generator) Generate(p qc.Params, src rand.Source) []float64 {
	n := p.NumPoints
	if n < 0 {
		n = 0
	}
	values := make([]float64, 0, n)
	sd := p.StdDev()
	mean := p.Target + p.Bias

	for i := 0; i < n; i++ {
		values = append(values, draw(p.Distribution, mean, sd, src))
		mean += p.DriftRate
	}
	return values
}

func draw(dist qc.Distribution, mean, sd float64, src rand.Source) float64 {
	switch dist {
	case qc.LogNormal:
		mu, sigma, ok := LogNormalParams(mean, sd)
		if !ok {
			return mean
		}
		return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: src}.Rand()
	case qc.Normal:
		fallthrough
	default:
		return distuv.Normal{Mu: mean, Sigma: sd, Src: src}.Rand()
	}
}

// LogNormalParams converts an arithmetic mean and standard deviation into the
// log-space parameters of the log-normal with those moments. ok is false when
// no such distribution exists (mean <= 0, negative or undefined sd).
func LogNormalParams(mean, sd float64) (mu, sigma float64, ok bool) {
	if !(mean > 0) || !(sd >= 0) || math.IsInf(mean, 0) || math.IsInf(sd, 0) {
		return 0, 0, false
	}
	ratio := sd / mean
	sigmaSq := math.Log1p(ratio * ratio)
	return math.Log(mean) - 0.5*sigmaSq, math.Sqrt(sigmaSq), true
}
