package synth

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcgen/domain/qc"
)

func seeded(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

func TestGenerate_Length(t *testing.T) {
	g := NewGenerator()
	for _, n := range []int{1, 2, 7, 31, 500} {
		for _, dist := range []qc.Distribution{qc.Normal, qc.LogNormal} {
			p := qc.DefaultParams()
			p.NumPoints = n
			p.Distribution = dist
			assert.Len(t, g.Generate(p, seeded(1)), n, "n=%d dist=%s", n, dist)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator()
	for _, dist := range []qc.Distribution{qc.Normal, qc.LogNormal} {
		p := qc.DefaultParams()
		p.Distribution = dist
		p.DriftRate = 0.3

		first := g.Generate(p, seeded(2024))
		second := g.Generate(p, seeded(2024))
		assert.Equal(t, first, second, dist.String())

		other := g.Generate(p, seeded(2025))
		assert.NotEqual(t, first, other, dist.String())
	}
}

func TestGenerate_NormalMoments(t *testing.T) {
	p := qc.Params{Target: 100, CV: 0.02, NumPoints: 20000, Distribution: qc.Normal}
	values := NewGenerator().Generate(p, seeded(11))

	mean, err := stats.Mean(values)
	require.NoError(t, err)
	sd, err := stats.StandardDeviationSample(values)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, mean, 0.1)
	assert.InDelta(t, 2.0, sd, 0.1)
}

func TestGenerate_LogNormalMomentsMatchRequest(t *testing.T) {
	p := qc.Params{Target: 100, CV: 0.10, NumPoints: 100000, Distribution: qc.LogNormal}
	values := NewGenerator().Generate(p, seeded(77))

	mean, err := stats.Mean(values)
	require.NoError(t, err)
	sd, err := stats.StandardDeviationSample(values)
	require.NoError(t, err)

	assert.InDelta(t, p.Target, mean, 0.3)
	assert.InDelta(t, p.StdDev(), sd, 0.3)
	for _, v := range values {
		require.Greater(t, v, 0.0)
	}
}

func TestGenerate_DriftAndBias(t *testing.T) {
	p := qc.Params{Target: 100, CV: 0.000001, NumPoints: 5, Bias: 2, DriftRate: 1, Distribution: qc.Normal}
	values := NewGenerator().Generate(p, seeded(3))

	for i, v := range values {
		assert.InDelta(t, 102.0+float64(i), v, 0.01, "day %d", i+1)
	}
}

func TestGenerate_NegativeDrift(t *testing.T) {
	p := qc.Params{Target: 50, CV: 0.000001, NumPoints: 4, DriftRate: -0.5, Distribution: qc.LogNormal}
	values := NewGenerator().Generate(p, seeded(3))

	assert.InDelta(t, 50.0, values[0], 0.01)
	assert.InDelta(t, 48.5, values[3], 0.01)
}

func TestGenerate_LogNormalNonPositiveMeanEmitsMean(t *testing.T) {
	// bias drives the running mean through zero
	p := qc.Params{Target: 1, CV: 0.05, NumPoints: 3, Bias: -1, DriftRate: -1, Distribution: qc.LogNormal}
	values := NewGenerator().Generate(p, seeded(4))

	assert.Equal(t, []float64{0, -1, -2}, values)
}

func TestGenerate_UnknownDistributionFallsBackToNormal(t *testing.T) {
	p := qc.DefaultParams()
	normal := NewGenerator().Generate(p, seeded(8))

	p.Distribution = qc.Distribution(42)
	unknown := NewGenerator().Generate(p, seeded(8))

	assert.Equal(t, normal, unknown)
}

func TestGenerate_DegenerateInputsDoNotPanic(t *testing.T) {
	g := NewGenerator()
	assert.NotPanics(t, func() {
		assert.Empty(t, g.Generate(qc.Params{NumPoints: 0}, nil))
		assert.Empty(t, g.Generate(qc.Params{NumPoints: -3}, nil))
		g.Generate(qc.Params{Target: 0, CV: 0, NumPoints: 3, Distribution: qc.LogNormal}, nil)
		g.Generate(qc.Params{Target: math.NaN(), CV: 0.01, NumPoints: 2}, seeded(1))
	})
}

func TestGenerate_NilSourceUsesGlobal(t *testing.T) {
	values := NewGenerator().Generate(qc.DefaultParams(), nil)
	assert.Len(t, values, qc.DefaultNumPoints)
}

func TestLogNormalParams(t *testing.T) {
	mu, sigma, ok := LogNormalParams(100, 10)
	require.True(t, ok)

	wantSigma := math.Sqrt(math.Log(1 + 0.01))
	assert.InDelta(t, wantSigma, sigma, 1e-12)
	assert.InDelta(t, math.Log(100)-0.5*wantSigma*wantSigma, mu, 1e-12)

	// the log-normal with these parameters has the requested moments
	gotMean := math.Exp(mu + sigma*sigma/2)
	gotSD := math.Sqrt((math.Exp(sigma*sigma) - 1) * math.Exp(2*mu+sigma*sigma))
	assert.InDelta(t, 100.0, gotMean, 1e-9)
	assert.InDelta(t, 10.0, gotSD, 1e-9)

	for _, bad := range [][2]float64{{0, 1}, {-5, 1}, {10, -1}, {math.NaN(), 1}, {10, math.NaN()}, {math.Inf(1), 1}} {
		_, _, ok := LogNormalParams(bad[0], bad[1])
		assert.False(t, ok, "%v", bad)
	}
}
