package ensemble

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ja7ad/spectrafit/pkg/util"
)

const (
	// DefaultWindow is Sokal's window constant c: the summation window M is
	// the smallest M with M >= c·tau(M).
	DefaultWindow = 5.0

	// DefaultTolerance is the minimum chain length in autocorrelation times
	// for the estimate to be trusted.
	DefaultTolerance = 50.0
)

// AutocorrError is returned with the estimate when the chain is too short.
type AutocorrError struct {
	Tau       []float64
	Steps     int
	Tolerance float64
	Flagged   int // parameters failing the check
}

func (e *AutocorrError) Error() string {
	return fmt.Sprintf("ensemble: the chain is shorter than %.0f times the integrated autocorrelation time "+
		"for %d parameter(s); steps=%d tau=%v", e.Tolerance, e.Flagged, e.Steps, e.Tau)
}

func (e *AutocorrError) Unwrap() error { return ErrChainTooShort }

// IntegratedTime estimates the integrated autocorrelation time of every
// parameter of c. The autocorrelation function is averaged over walkers
// before summing. A parameter that never moves in some walker gets +Inf.
//
// When tol·tau > steps for any parameter the estimates are returned with an
// *AutocorrError; tol <= 0 disables the check.
func IntegratedTime(c Chain, window, tol float64) ([]float64, error) {
	n := c.Steps()
	if n == 0 {
		return nil, ErrEmptyChain
	}

	size := 2 * util.NextPow2(n)
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("ensemble: fft plan: %w", err)
	}
	buf := &acfBuffers{
		in:  make([]complex128, size),
		out: make([]complex128, size),
		acf: make([]float64, n),
	}

	tau := make([]float64, c.Dim())
	f := make([]float64, n)
	for d := range tau {
		for i := range f {
			f[i] = 0
		}
		degenerate := false
		for w := 0; w < c.Walkers(); w++ {
			acf, err := buf.autocorr(plan, c.Series(w, d))
			if err != nil {
				return nil, err
			}
			if acf == nil {
				degenerate = true
				break
			}
			floats.Add(f, acf)
		}
		if degenerate {
			tau[d] = math.Inf(1)
			continue
		}
		floats.Scale(1/float64(c.Walkers()), f)
		tau[d] = windowedTau(f, window)
	}

	if tol > 0 {
		flagged := 0
		for _, t := range tau {
			if tol*t > float64(n) {
				flagged++
			}
		}
		if flagged > 0 {
			return tau, &AutocorrError{Tau: tau, Steps: n, Tolerance: tol, Flagged: flagged}
		}
	}
	return tau, nil
}

type acfBuffers struct {
	in, out []complex128
	acf     []float64
}

// autocorr returns the normalized autocorrelation function of x, or nil when
// x has zero variance. The returned slice is reused between calls.
func (b *acfBuffers) autocorr(plan *algofft.Plan[complex128], x []float64) ([]float64, error) {
	mean := stat.Mean(x, nil)
	for i := range b.in {
		if i < len(x) {
			b.in[i] = complex(x[i]-mean, 0)
		} else {
			b.in[i] = 0
		}
	}
	if err := plan.Forward(b.out, b.in); err != nil {
		return nil, fmt.Errorf("ensemble: forward fft: %w", err)
	}
	// power spectrum: F·conj(F)
	for i, v := range b.out {
		b.out[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}
	if err := plan.Inverse(b.in, b.out); err != nil {
		return nil, fmt.Errorf("ensemble: inverse fft: %w", err)
	}
	norm := real(b.in[0])
	if norm <= 0 || math.IsNaN(norm) {
		return nil, nil
	}
	for i := range b.acf {
		b.acf[i] = real(b.in[i]) / norm
	}
	return b.acf, nil
}

// windowedTau applies Sokal's automatic window to tau(M) = 2·Σ_{t<=M} ρ(t) - 1.
func windowedTau(rho []float64, c float64) float64 {
	var cum float64
	last := 0.0
	for m, r := range rho {
		cum += r
		tau := 2*cum - 1
		if float64(m) >= c*tau {
			return tau
		}
		last = tau
	}
	return last
}
