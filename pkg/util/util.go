package util

import (
	"math"
	"slices"
	"strconv"
)

// Percentiles returns the qs-th percentiles (each q in [0,100]) of xs using
// linear interpolation between closest ranks, the same definition NumPy uses
// by default. xs is not modified. Every entry is NaN for an empty slice.
func Percentiles(xs []float64, qs ...float64) []float64 {
	out := make([]float64, len(qs))
	if len(xs) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	for i, q := range qs {
		out[i] = percentileSorted(sorted, q)
	}
	return out
}

func percentileSorted(sorted []float64, q float64) float64 {
	q = Clamp(q, 0, 100)
	h := float64(len(sorted)-1) * q / 100
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// ArgMax returns the index of the first maximum of xs, ignoring NaN values.
// +Inf counts as a maximum. Returns -1 when xs is empty or all NaN.
func ArgMax(xs []float64) int {
	idx := -1
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if idx < 0 || x > xs[idx] {
			idx = i
		}
	}
	return idx
}

// NextPow2 returns the smallest power of two >= n (1 for n <= 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	// guard against NaN
	if math.IsNaN(x) {
		return lo
	}
	return x
}

// Finite reports whether x is neither NaN nor ±Inf.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FmtFloat formats x with the shortest representation that round-trips.
func FmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
