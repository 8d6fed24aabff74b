package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneToHundred() []float64 {
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	return xs
}

func TestPercentile_OneToHundred_MatchesNumPy(t *testing.T) {
	xs := oneToHundred()
	// numpy.percentile(np.arange(1, 101), [16, 50, 84]) -> [16.84, 50.5, 84.16]
	got := Percentiles(xs, 16, 50, 84)
	want := []float64{16.84, 50.5, 84.16}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "q index %d", i)
	}
}

func TestPercentile_Extremes(t *testing.T) {
	xs := []float64{5, 1, 3}
	assert.Equal(t, []float64{1, 5, 3}, Percentiles(xs, 0, 100, 50))
	// input stays untouched
	assert.Equal(t, []float64{5, 1, 3}, xs)
}

func TestPercentile_SingleAndEmpty(t *testing.T) {
	assert.Equal(t, []float64{7}, Percentiles([]float64{7}, 16))
	for _, v := range Percentiles(nil, 16, 84) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestPercentile_Interpolates(t *testing.T) {
	// h = 3 * 0.25 = 0.75 -> 10 + 0.75*(20-10)
	assert.InDelta(t, 17.5, Percentiles([]float64{40, 10, 30, 20}, 25)[0], 1e-12)
}

func TestArgMax(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want int
	}{
		{"empty", nil, -1},
		{"all nan", []float64{math.NaN(), math.NaN()}, -1},
		{"first of ties", []float64{1, 3, 3, 2}, 1},
		{"skips leading nan", []float64{math.NaN(), 1, 2}, 2},
		{"inf wins", []float64{1, math.Inf(1), 5}, 1},
		{"negative", []float64{-4, -1, -9}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ArgMax(tc.in))
		})
	}
}

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, NextPow2(0))
	assert.Equal(t, 1, NextPow2(1))
	assert.Equal(t, 8, NextPow2(5))
	assert.Equal(t, 1024, NextPow2(1024))
	assert.Equal(t, 2048, NextPow2(1025))
}

func TestSafeDivAndClamp(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(1, 0))
	assert.Equal(t, 2.0, SafeDiv(4, 2))
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(3, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
	assert.True(t, Finite(1))
	assert.False(t, Finite(math.Inf(-1)))
	assert.False(t, Finite(math.NaN()))
}

func TestFmtFloat(t *testing.T) {
	assert.Equal(t, "2.21", FmtFloat(2.21))
	assert.Equal(t, "1e-05", FmtFloat(1e-5))
	assert.Equal(t, "-3", FmtFloat(-3))
}
