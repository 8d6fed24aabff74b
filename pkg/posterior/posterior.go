// Package posterior builds the log-posterior density sampled by the fit:
// a bounded flat prior over (Fvb, vb, p, log f) and a Gaussian likelihood
// with averaged asymmetric errors inflated by a fractional term f·model.
package posterior

import (
	"fmt"
	"math"

	"github.com/ja7ad/spectrafit/pkg/spectrum"
)

// Parameter indices into θ.
const (
	IdxFvb = iota
	IdxVb
	IdxP
	IdxLogF

	NDim
)

// Labels names the parameters in θ order.
var Labels = [NDim]string{"Fvb", "vb", "p", "log(f)"}

// Interval is an open interval (Lo, Hi).
type Interval struct{ Lo, Hi float64 }

// Contains reports Lo < x < Hi. NaN is never contained.
func (i Interval) Contains(x float64) bool { return i.Lo < x && x < i.Hi }

// Bounds is the support of the flat prior.
type Bounds [NDim]Interval

// DefaultBounds returns Fvb∈(0.1,1e4) mJy, vb∈(0.1,5) GHz, p∈(1,3.5),
// log f∈(-10,10).
func DefaultBounds() Bounds {
	return Bounds{
		IdxFvb:  {0.1, 1e4},
		IdxVb:   {0.1, 5},
		IdxP:    {1, 3.5},
		IdxLogF: {-10, 10},
	}
}

// Data is the observed spectrum the likelihood is evaluated against.
// All slices share one length.
type Data struct {
	Frequency []float64 // GHz
	Flux      []float64 // mJy, quiescent emission already removed
	ErrLow    []float64 // mJy
	ErrUp     []float64 // mJy
}

// Validate checks that all slices share a non-zero length.
func (d Data) Validate() error {
	n := len(d.Frequency)
	if n == 0 {
		return fmt.Errorf("posterior: no data points")
	}
	if len(d.Flux) != n || len(d.ErrLow) != n || len(d.ErrUp) != n {
		return fmt.Errorf("posterior: length mismatch: frequency=%d flux=%d err_low=%d err_up=%d",
			n, len(d.Flux), len(d.ErrLow), len(d.ErrUp))
	}
	return nil
}

// Density is the log-posterior for one spectral break and dataset.
type Density struct {
	brk    spectrum.Break
	data   Data
	bounds Bounds
}

// New returns a Density. bounds may be nil for DefaultBounds.
func New(brk spectrum.Break, data Data, bounds *Bounds) (*Density, error) {
	if !brk.Valid() {
		return nil, fmt.Errorf("posterior: %w: got %d", spectrum.ErrInvalidBreak, int(brk))
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	b := DefaultBounds()
	if bounds != nil {
		b = *bounds
	}
	return &Density{brk: brk, data: data, bounds: b}, nil
}

// Bounds returns the prior support.
func (d *Density) Bounds() Bounds { return d.bounds }

// LogPrior is 0 inside the bounds and -Inf outside.
func (d *Density) LogPrior(theta []float64) float64 {
	if len(theta) != NDim {
		return math.Inf(-1)
	}
	for i, iv := range d.bounds {
		if !iv.Contains(theta[i]) {
			return math.Inf(-1)
		}
	}
	return 0
}

// LogLikelihood is -0.5·Σ[(y-m)²/σ² + ln σ²] with
// σ² = ((σup² + m²e^{2 log f}) + (σlow² + m²e^{2 log f})) / 2.
func (d *Density) LogLikelihood(theta []float64) float64 {
	fvb, vb, p, logF := theta[IdxFvb], theta[IdxVb], theta[IdxP], theta[IdxLogF]
	f2 := math.Exp(2 * logF)

	var sum float64
	for i, v := range d.data.Frequency {
		m := d.brk.Flux(v, fvb, vb, p)
		inflate := m * m * f2
		up := d.data.ErrUp[i]
		low := d.data.ErrLow[i]
		sigma2 := ((up*up + inflate) + (low*low + inflate)) / 2
		r := d.data.Flux[i] - m
		sum += r*r/sigma2 + math.Log(sigma2)
	}
	return -0.5 * sum
}

// LogProb combines prior and likelihood. It returns -Inf without touching
// the likelihood when θ is outside the prior, and -Inf when the likelihood
// is NaN.
func (d *Density) LogProb(theta []float64) float64 {
	lp := d.LogPrior(theta)
	if math.IsInf(lp, -1) {
		return lp
	}
	ll := d.LogLikelihood(theta)
	if math.IsNaN(ll) {
		return math.Inf(-1)
	}
	return lp + ll
}
