package ensemble

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func gaussian2D(x []float64) float64 {
	return -0.5 * (x[0]*x[0] + x[1]*x[1]/4)
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(3, 2, gaussian2D)
	require.ErrorIs(t, err, ErrTooFewWalkers)

	_, err = New(4, 0, gaussian2D)
	require.ErrorIs(t, err, ErrBadDim)

	_, err = New(4, 2, nil)
	require.Error(t, err)

	s, err := New(4, 2, gaussian2D)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Walkers())
	assert.Equal(t, 2, s.Dim())
	assert.Equal(t, 0, s.Iterations())
}

func TestRun_RejectsBadInitial(t *testing.T) {
	s, err := New(4, 2, gaussian2D)
	require.NoError(t, err)
	ctx := context.Background()

	require.ErrorIs(t, s.Run(ctx, nil, 10), ErrNoState)
	require.ErrorIs(t, s.Run(ctx, [][]float64{{0, 0}}, 10), ErrBadInitial)
	require.ErrorIs(t, s.Run(ctx, [][]float64{{0, 0}, {0}, {0, 0}, {0, 0}}, 10), ErrBadInitial)
	require.ErrorIs(t, s.Run(ctx, [][]float64{{0, 0}, {math.NaN(), 0}, {0, 0}, {0, 0}}, 10), ErrBadInitial)

	nan, err := New(4, 2, func([]float64) float64 { return math.NaN() })
	require.NoError(t, err)
	require.ErrorIs(t, nan.Run(ctx, Ball([]float64{0, 0}, 1e-3, 4, nil), 10), ErrNaNLogProb)
}

func TestRun_SamplesGaussian(t *testing.T) {
	const walkers, steps = 32, 5000
	s, err := New(walkers, 2, gaussian2D, WithRand(seeded(42)))
	require.NoError(t, err)

	init := Ball([]float64{1, 1}, 1e-4, walkers, seeded(7))
	require.NoError(t, s.Run(context.Background(), init, steps))
	assert.Equal(t, steps, s.Iterations())

	flat := s.Chain(1000, 5)
	x := flat.Param(0)
	y := flat.Param(1)
	mx, sx := stat.MeanStdDev(x, nil)
	my, sy := stat.MeanStdDev(y, nil)
	t.Logf("x: mean=%.3f std=%.3f  y: mean=%.3f std=%.3f  (n=%d)", mx, sx, my, sy, len(x))

	assert.InDelta(t, 0, mx, 0.15)
	assert.InDelta(t, 1, sx, 0.15)
	assert.InDelta(t, 0, my, 0.3)
	assert.InDelta(t, 2, sy, 0.3)

	for k, f := range s.AcceptanceFraction() {
		assert.Greater(t, f, 0.2, "walker %d", k)
		assert.Less(t, f, 0.95, "walker %d", k)
	}

	tau, err := s.AutocorrTime(500, 1)
	require.NoError(t, err)
	for d, v := range tau {
		t.Logf("tau[%d] = %.2f", d, v)
		assert.Greater(t, v, 1.0)
		assert.Less(t, v, float64(steps)/50)
	}
}

func TestWithStretch(t *testing.T) {
	s, err := New(8, 2, gaussian2D)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.a)

	for _, a := range []float64{1, 0.5, -3} {
		s, err = New(8, 2, gaussian2D, WithStretch(a))
		require.NoError(t, err)
		assert.Equal(t, 2.0, s.a, "a=%v", a)
	}

	// wider proposals are accepted less often
	accept := func(a float64) float64 {
		s, err := New(32, 2, gaussian2D, WithStretch(a), WithRand(seeded(9)))
		require.NoError(t, err)
		require.NoError(t, s.Run(context.Background(), Ball([]float64{0, 0}, 1, 32, seeded(4)), 2000))
		return stat.Mean(s.AcceptanceFraction(), nil)
	}
	narrow, wide := accept(1.2), accept(6)
	t.Logf("acceptance a=1.2: %.3f  a=6: %.3f", narrow, wide)
	assert.Greater(t, narrow, wide)
}

func TestRun_SameSeedSameChain(t *testing.T) {
	run := func() Chain {
		s, err := New(8, 2, gaussian2D, WithRand(seeded(3)))
		require.NoError(t, err)
		require.NoError(t, s.Run(context.Background(), Ball([]float64{0, 0}, 1e-3, 8, seeded(5)), 200))
		return s.Chain(0, 1)
	}
	a, b := run(), run()
	assert.Equal(t, a.Param(0), b.Param(0))
	assert.Equal(t, a.Param(1), b.Param(1))
}

func TestRun_ContinueAndCancel(t *testing.T) {
	s, err := New(8, 2, gaussian2D, WithRand(seeded(11)))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, Ball([]float64{0, 0}, 1e-3, 8, nil), 50))
	require.NoError(t, s.Run(ctx, nil, 25))
	assert.Equal(t, 75, s.Iterations())
	assert.Len(t, s.LogProb(0, 1), 75)
	assert.Len(t, s.LogProb(70, 1)[0], 8)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = s.Run(cctx, nil, 10)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 75, s.Iterations())
}

func TestRun_NeverAcceptsZeroDensity(t *testing.T) {
	// Uniform on the unit square; everything outside has zero density.
	box := func(x []float64) float64 {
		if x[0] < 0 || x[0] > 1 || x[1] < 0 || x[1] > 1 {
			return math.Inf(-1)
		}
		return 0
	}
	s, err := New(16, 2, box, WithRand(seeded(9)))
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), Ball([]float64{0.5, 0.5}, 0.1, 16, seeded(1)), 500))

	for _, row := range s.Chain(0, 1).Flat() {
		require.True(t, row[0] >= 0 && row[0] <= 1 && row[1] >= 0 && row[1] <= 1, "escaped: %v", row)
	}
	for _, lps := range s.LogProb(0, 1) {
		for _, lp := range lps {
			require.Equal(t, 0.0, lp)
		}
	}
}

func TestBall(t *testing.T) {
	b := Ball([]float64{2.21, 2.68, 2.8, 1}, 1e-4, 400, seeded(1))
	require.Len(t, b, 400)
	for _, x := range b {
		require.Len(t, x, 4)
		assert.InDelta(t, 2.21, x[0], 1e-3)
		assert.InDelta(t, 1, x[3], 1e-3)
	}
	assert.NotEqual(t, b[0], b[1])
}
