package fit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/ja7ad/spectrafit/pkg/ensemble"
	"github.com/ja7ad/spectrafit/pkg/posterior"
	"github.com/ja7ad/spectrafit/pkg/spectrum"
	"github.com/ja7ad/spectrafit/pkg/util"
)

// Fitter fits one smoothly broken power law to one spectrum.
type Fitter struct {
	cfg     *Config
	obs     Observations
	brk     spectrum.Break
	density *posterior.Density
	logger  *slog.Logger
}

// New validates obs and merges cfg over the defaults.
// Notes:
//   - Break 0 selects break 5; any other value outside 1..11 is an error.
//   - Walkers/Steps/Thin/Scatter must be > 0 to override defaults.
//   - Stretch must be > 1 to override the default.
//   - Burnin overrides the default when non-nil; Steps(0) disables burn-in.
//   - Initial overrides the default only when any component is non-zero.
//   - Grid overrides the default when Points > 0.
//   - Seed, Bounds and Logger are taken verbatim when set.
func New(obs Observations, cfg *Config) (*Fitter, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}

	merged := *_defaultConfig()
	if cfg != nil {
		if cfg.Break != 0 {
			merged.Break = cfg.Break
		}
		if cfg.Walkers > 0 {
			merged.Walkers = cfg.Walkers
		}
		if cfg.Steps > 0 {
			merged.Steps = cfg.Steps
		}
		if cfg.Burnin != nil {
			merged.Burnin = Steps(*cfg.Burnin)
		}
		if cfg.Thin > 0 {
			merged.Thin = cfg.Thin
		}
		if cfg.Initial != ([3]float64{}) {
			merged.Initial = cfg.Initial
		}
		if cfg.Scatter > 0 {
			merged.Scatter = cfg.Scatter
		}
		if cfg.Stretch > 1 {
			merged.Stretch = cfg.Stretch
		}
		if cfg.Grid.Points > 0 {
			merged.Grid = cfg.Grid
		}
		merged.Seed = cfg.Seed
		merged.Bounds = cfg.Bounds
		merged.Logger = cfg.Logger
	}
	if merged.Logger == nil {
		merged.Logger = slog.Default()
	}

	brk, err := spectrum.Lookup(merged.Break)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if merged.Walkers < 2*posterior.NDim {
		return nil, fmt.Errorf("%w: need at least %d walkers, got %d", ErrBadConfig, 2*posterior.NDim, merged.Walkers)
	}
	if b := merged.BurninSteps(); b < 0 || b >= merged.Steps {
		return nil, fmt.Errorf("%w: burn-in %d must lie in [0, %d)", ErrBadConfig, b, merged.Steps)
	}
	if err := merged.Grid.validate(); err != nil {
		return nil, err
	}

	density, err := posterior.New(brk, obs.data(), merged.Bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if lp := density.LogProb(merged.start()); math.IsInf(lp, -1) || math.IsNaN(lp) {
		return nil, fmt.Errorf("%w: initial guess %v lies outside the prior", ErrBadConfig, merged.Initial)
	}

	f := &Fitter{cfg: &merged, obs: obs, brk: brk, density: density, logger: merged.Logger}
	if !brk.Identifiable() {
		f.logger.Warn("p is not identifiable for this break; its posterior is the prior",
			"break", int(brk))
	}
	return f, nil
}

// Config returns a copy of the merged configuration.
func (f *Fitter) Config() Config {
	c := *f.cfg
	c.Burnin = Steps(f.cfg.BurninSteps())
	return c
}

// Break returns the selected spectral break.
func (f *Fitter) Break() spectrum.Break { return f.brk }

// start is the θ the walkers are scattered around.
func (c *Config) start() []float64 {
	return []float64{c.Initial[0], c.Initial[1], c.Initial[2], initialLogF}
}

func (c *Config) rng() *rand.Rand {
	if c.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
}

// Sample scatters the walkers in a tiny ball around the initial guess and
// runs the ensemble for the configured number of steps.
func (f *Fitter) Sample(ctx context.Context) (*ensemble.Sampler, error) {
	rng := f.cfg.rng()
	s, err := ensemble.New(f.cfg.Walkers, posterior.NDim, f.density.LogProb,
		ensemble.WithStretch(f.cfg.Stretch),
		ensemble.WithRand(rng),
		ensemble.WithLogger(f.logger),
		ensemble.WithProgress(max(f.cfg.Steps/10, 1)),
	)
	if err != nil {
		return nil, err
	}

	f.logger.Info("sampling posterior",
		"break", int(f.brk),
		"walkers", f.cfg.Walkers,
		"steps", f.cfg.Steps,
		"points", len(f.obs.Frequency))

	init := ensemble.Ball(f.cfg.start(), f.cfg.Scatter, f.cfg.Walkers, rng)
	if err := s.Run(ctx, init, f.cfg.Steps); err != nil {
		return s, err
	}
	return s, nil
}

// Summarize turns a finished sampler into a Result. An unreliable
// autocorrelation estimate is logged and reported as +Inf; it does not fail
// the fit.
func (f *Fitter) Summarize(s *ensemble.Sampler) (Result, error) {
	tau, err := s.AutocorrTime(0, 1)
	reliable := true
	switch {
	case errors.Is(err, ensemble.ErrChainTooShort):
		reliable = false
		f.logger.Warn("autocorrelation time estimate is unreliable; use the result with caution and run a longer chain",
			"tau", tau, "steps", s.Iterations())
	case err != nil:
		return Result{}, err
	default:
		f.logger.Info("autocorrelation time",
			"tau", tau, "suggested_steps", suggestedSteps(tau))
	}

	res, err := Extract(s.Chain(0, 1), f.cfg.BurninSteps(), f.cfg.Thin, f.brk, f.cfg.Grid)
	if err != nil {
		return Result{}, err
	}

	res.TauRaw = tau
	res.Reliable = reliable
	res.Tau = make(Autocorr, len(tau))
	for i, t := range tau {
		if reliable {
			res.Tau[i] = t
		} else {
			res.Tau[i] = math.Inf(1)
		}
	}
	var acc float64
	for _, a := range s.AcceptanceFraction() {
		acc += a
	}
	res.Acceptance = util.SafeDiv(acc, float64(s.Walkers()))
	return res, nil
}

// Run samples and summarizes. The sampler is returned so callers can export
// the chain; it is nil only when sampling could not start.
func (f *Fitter) Run(ctx context.Context) (Result, *ensemble.Sampler, error) {
	s, err := f.Sample(ctx)
	if err != nil {
		return Result{}, s, err
	}
	res, err := f.Summarize(s)
	if err != nil {
		return Result{}, s, err
	}
	f.logger.Info("fit done",
		"break", int(f.brk),
		"fp", res.Fp.Value, "vp", res.Vp.Value,
		"acceptance", res.Acceptance)
	return res, s, nil
}

// suggestedSteps is ten times the longest finite autocorrelation time.
func suggestedSteps(tau []float64) int {
	var m float64
	for _, t := range tau {
		if !math.IsInf(t, 0) && t > m {
			m = t
		}
	}
	return int(math.Ceil(10 * m))
}
