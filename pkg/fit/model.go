package fit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/ja7ad/spectrafit/pkg/posterior"
	"github.com/ja7ad/spectrafit/pkg/spectrum"
	"github.com/ja7ad/spectrafit/pkg/util"
)

// Observations is one radio spectrum.
// Units:
//   - Frequency: GHz
//   - Flux, ErrLow, ErrUp, Quiescent: mJy
//
// Quiescent is optional host emission subtracted element-wise before fitting.
type Observations struct {
	Frequency []float64 `json:"frequency"`
	Flux      []float64 `json:"flux"`
	ErrLow    []float64 `json:"err_low"`
	ErrUp     []float64 `json:"err_up"`
	Quiescent []float64 `json:"quiescent,omitempty"`
}

// Validate checks shapes and values. It runs before any sampling.
func (o Observations) Validate() error {
	n := len(o.Frequency)
	if n == 0 {
		return ErrNoObservations
	}
	if len(o.Flux) != n || len(o.ErrLow) != n || len(o.ErrUp) != n {
		return fmt.Errorf("%w: frequency=%d flux=%d err_low=%d err_up=%d",
			ErrShapeMismatch, n, len(o.Flux), len(o.ErrLow), len(o.ErrUp))
	}
	if o.Quiescent != nil && len(o.Quiescent) != n {
		return fmt.Errorf("%w: frequency=%d quiescent=%d", ErrShapeMismatch, n, len(o.Quiescent))
	}
	for i := 0; i < n; i++ {
		switch {
		case !(o.Frequency[i] > 0) || math.IsInf(o.Frequency[i], 0):
			return fmt.Errorf("%w: frequency[%d]=%v must be positive", ErrBadObservation, i, o.Frequency[i])
		case !util.Finite(o.Flux[i]):
			return fmt.Errorf("%w: flux[%d]=%v", ErrBadObservation, i, o.Flux[i])
		case !(o.ErrLow[i] >= 0) || !(o.ErrUp[i] >= 0) || math.IsInf(o.ErrLow[i], 0) || math.IsInf(o.ErrUp[i], 0):
			return fmt.Errorf("%w: errors[%d]=(%v, %v) must be non-negative", ErrBadObservation, i, o.ErrLow[i], o.ErrUp[i])
		case o.Quiescent != nil && !util.Finite(o.Quiescent[i]):
			return fmt.Errorf("%w: quiescent[%d]=%v", ErrBadObservation, i, o.Quiescent[i])
		}
	}
	return nil
}

// Emission returns Flux - Quiescent, or a copy of Flux without a quiescent
// level.
func (o Observations) Emission() []float64 {
	out := make([]float64, len(o.Flux))
	copy(out, o.Flux)
	if o.Quiescent != nil {
		for i := range out {
			out[i] -= o.Quiescent[i]
		}
	}
	return out
}

func (o Observations) data() posterior.Data {
	return posterior.Data{
		Frequency: o.Frequency,
		Flux:      o.Emission(),
		ErrLow:    o.ErrLow,
		ErrUp:     o.ErrUp,
	}
}

// Grid is the frequency grid the fitted curve is evaluated on to locate the
// peak. Points are equally spaced with both ends included.
type Grid struct {
	Min    float64 `json:"min"` // GHz
	Max    float64 `json:"max"` // GHz
	Points int     `json:"points"`
}

// Step is the grid spacing.
func (g Grid) Step() float64 { return (g.Max - g.Min) / float64(g.Points-1) }

func (g Grid) validate() error {
	if g.Points < 2 || !(g.Max > g.Min) || !util.Finite(g.Min) || !util.Finite(g.Max) {
		return fmt.Errorf("%w: grid must have >= 2 points over a non-empty range, got %+v", ErrBadConfig, g)
	}
	return nil
}

// Config holds the fit settings.
type Config struct {
	Break   int        // spectral break 1..11
	Walkers int        // ensemble size
	Steps   int        // sampler steps per walker
	Burnin  *int       // steps discarded before extraction; nil for the default
	Thin    int        // keep every Thin-th step after burn-in
	Initial [3]float64 // starting guess (Fvb mJy, vb GHz, p)
	Scatter float64    // scale of the initial walker perturbation
	Stretch float64    // stretch-move scale a, > 1
	Seed    uint64     // 0 draws from the process-global source
	Grid    Grid
	Bounds  *posterior.Bounds // nil for posterior.DefaultBounds
	Logger  *slog.Logger
}

// initialLogF is the starting log f of every walker.
const initialLogF = 1.0

// _defaultConfig returns the settings the fit was tuned with.
func _defaultConfig() *Config {
	return &Config{
		Break:   5,
		Walkers: 400,
		Steps:   10000,
		Burnin:  Steps(150),
		Thin:    15,
		Initial: [3]float64{2.21, 2.68, 2.8},
		Scatter: 1e-4,
		Stretch: 2,
		Grid:    DefaultGrid(),
	}
}

// Steps returns a pointer to n, for Config.Burnin.
func Steps(n int) *int { return &n }

// BurninSteps is the burn-in length, zero when unset.
func (c Config) BurninSteps() int {
	if c.Burnin == nil {
		return 0
	}
	return *c.Burnin
}

// DefaultConfig returns a copy of the default settings.
func DefaultConfig() Config { return *_defaultConfig() }

// DefaultGrid is 100 points over [0, 30] GHz.
func DefaultGrid() Grid { return Grid{Min: 0, Max: 30, Points: 100} }

// Estimate is a posterior summary: the median and the distances to the
// 16th and 84th percentiles.
type Estimate struct {
	Value float64 `json:"value"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Sigma is the mean of the two one-sided uncertainties.
func (e Estimate) Sigma() float64 { return (e.Lower + e.Upper) / 2 }

// Curve is the fitted model on the grid with the 16th/84th percentile
// parameter sets.
type Curve struct {
	Frequency []float64 `json:"frequency"`
	Flux      []float64 `json:"flux"`
	FluxUp    []float64 `json:"flux_up"`
	FluxLow   []float64 `json:"flux_low"`
	PeakIndex int       `json:"peak_index"`
}

// Result is the outcome of one fit.
type Result struct {
	Break spectrum.Break `json:"break"`

	Fvb  Estimate `json:"fvb"`   // mJy
	Vb   Estimate `json:"vb"`    // GHz
	P    Estimate `json:"p"`
	LogF Estimate `json:"log_f"`
	Fp   Estimate `json:"fp"`    // mJy, Lower == Upper
	Vp   Estimate `json:"vp"`    // GHz, ± half a grid step

	Mean [posterior.NDim]float64 `json:"mean"`
	Std  [posterior.NDim]float64 `json:"std"`

	Samples    int      `json:"samples"`
	Acceptance float64  `json:"acceptance"`
	Tau        Autocorr `json:"tau"`          // +Inf when unreliable
	TauRaw     Autocorr `json:"tau_estimate"` // estimate before the reliability check
	Reliable   bool     `json:"reliable"`

	Curve Curve `json:"curve"`
}

// Autocorr holds integrated autocorrelation times in steps. Non-finite
// entries marshal as null.
type Autocorr []float64

func (a Autocorr) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(a))
	for i, v := range a {
		if util.Finite(v) {
			out[i] = &a[i]
		}
	}
	return json.Marshal(out)
}

// Params returns the four parameter estimates in θ order.
func (r Result) Params() [posterior.NDim]Estimate {
	return [posterior.NDim]Estimate{r.Fvb, r.Vb, r.P, r.LogF}
}
