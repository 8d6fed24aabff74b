package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/spectrafit/pkg/ensemble"
	"github.com/ja7ad/spectrafit/pkg/posterior"
	"github.com/ja7ad/spectrafit/pkg/spectrum"
)

// rampChain has one walker whose parameters step linearly with the step
// index i = 1..n: Fvb = i, vb = 2 + i/100, p = 2 + i/100, log f = -i/100.
func rampChain(t *testing.T, n int) ensemble.Chain {
	t.Helper()
	data := make([]float64, 0, n*posterior.NDim)
	for i := 1; i <= n; i++ {
		x := float64(i)
		data = append(data, x, 2+x/100, 2+x/100, -x/100)
	}
	c, err := ensemble.NewChain(n, 1, posterior.NDim, data)
	require.NoError(t, err)
	return c
}

// constChain repeats theta for every step and walker.
func constChain(t *testing.T, steps, walkers int, theta []float64) ensemble.Chain {
	t.Helper()
	data := make([]float64, 0, steps*walkers*len(theta))
	for i := 0; i < steps*walkers; i++ {
		data = append(data, theta...)
	}
	c, err := ensemble.NewChain(steps, walkers, len(theta), data)
	require.NoError(t, err)
	return c
}

func TestExtract_Percentiles(t *testing.T) {
	res, err := Extract(rampChain(t, 100), 0, 1, 5, DefaultGrid())
	require.NoError(t, err)

	assert.Equal(t, 100, res.Samples)
	assert.InDelta(t, 50.5, res.Fvb.Value, 1e-9)
	assert.InDelta(t, 50.5-16.84, res.Fvb.Lower, 1e-9)
	assert.InDelta(t, 84.16-50.5, res.Fvb.Upper, 1e-9)
	assert.InDelta(t, 2.505, res.Vb.Value, 1e-9)
	assert.InDelta(t, 0.3366, res.Vb.Sigma(), 1e-9)
	assert.InDelta(t, -0.505, res.LogF.Value, 1e-9)
	assert.InDelta(t, 50.5, res.Mean[posterior.IdxFvb], 1e-9)
}

func TestExtract_BurninAndThin(t *testing.T) {
	res, err := Extract(rampChain(t, 100), 50, 10, 5, DefaultGrid())
	require.NoError(t, err)
	// steps 51, 61, ..., 91
	assert.Equal(t, 5, res.Samples)
	assert.InDelta(t, 71, res.Fvb.Value, 1e-9)

	_, err = Extract(rampChain(t, 100), 100, 1, 5, DefaultGrid())
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestExtract_PeakOnGrid(t *testing.T) {
	theta := []float64{50, 3, 2.5, -2}
	res, err := Extract(constChain(t, 20, 8, theta), 5, 1, 5, DefaultGrid())
	require.NoError(t, err)

	c := res.Curve
	require.Len(t, c.Frequency, 100)
	assert.Equal(t, 0.0, c.Frequency[0])
	assert.InDelta(t, 30.0, c.Frequency[99], 1e-12)
	assert.Equal(t, 15, c.PeakIndex)
	assert.InDelta(t, 30.0*15/99, res.Vp.Value, 1e-12)
	assert.InDelta(t, 28.2162, res.Fp.Value, 1e-3)
	assert.InDelta(t, spectrum.Break(5).Flux(res.Vp.Value, 50, 3, 2.5), res.Fp.Value, 1e-12)

	// A collapsed posterior leaves only the grid resolution.
	assert.Equal(t, 0.0, res.Fp.Sigma())
	assert.InDelta(t, 30.0/99/2, res.Vp.Lower, 1e-12)
	assert.Equal(t, res.Vp.Lower, res.Vp.Upper)
	for i := range c.Flux {
		assert.Equal(t, c.Flux[i], c.FluxUp[i])
		assert.Equal(t, c.Flux[i], c.FluxLow[i])
	}
}

func TestExtract_PeakUncertaintyFromPercentileCurves(t *testing.T) {
	res, err := Extract(rampChain(t, 100), 0, 1, 5, DefaultGrid())
	require.NoError(t, err)

	k := res.Curve.PeakIndex
	v := res.Curve.Frequency[k]
	up := spectrum.Break(5).Flux(v, 84.16, 2.8416, 2.8416)
	low := spectrum.Break(5).Flux(v, 16.84, 2.1684, 2.1684)
	fp := res.Fp.Value
	want := (math.Abs(up-fp) + math.Abs(fp-low)) / 2
	assert.InDelta(t, want, res.Fp.Lower, 1e-9)
	assert.Equal(t, res.Fp.Lower, res.Fp.Upper)
}

func TestExtract_Idempotent(t *testing.T) {
	c := rampChain(t, 100)
	a, err := Extract(c, 10, 3, 6, DefaultGrid())
	require.NoError(t, err)
	b, err := Extract(c, 10, 3, 6, DefaultGrid())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 100, c.Steps())
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract(constChain(t, 10, 2, []float64{1, 2, 3}), 0, 1, 5, DefaultGrid())
	require.Error(t, err)

	_, err = Extract(rampChain(t, 10), 0, 1, 12, DefaultGrid())
	require.ErrorIs(t, err, spectrum.ErrInvalidBreak)

	_, err = Extract(rampChain(t, 10), 0, 1, 5, Grid{Min: 0, Max: 30, Points: 1})
	require.ErrorIs(t, err, ErrBadConfig)

	_, err = Extract(rampChain(t, 10), 0, 1, 5, Grid{Min: 5, Max: 5, Points: 10})
	require.ErrorIs(t, err, ErrBadConfig)

	// Both slopes of break 9 fall with frequency, so the curve diverges at 0.
	_, err = Extract(constChain(t, 4, 2, []float64{50, 3, 2.5, 0}), 0, 1, 9, DefaultGrid())
	require.ErrorIs(t, err, ErrNoPeak)

	res, err := Extract(constChain(t, 4, 2, []float64{50, 3, 2.5, 0}), 0, 1, 9, Grid{Min: 1, Max: 30, Points: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Curve.PeakIndex)
}
