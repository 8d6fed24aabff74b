package ensemble

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
)

// LogProbFunc returns the log-density at x. Implementations must not retain
// or modify x.
type LogProbFunc func(x []float64) float64

// Option configures a Sampler.
type Option func(*Sampler)

// WithStretch sets the stretch-move scale a (> 1, default 2).
func WithStretch(a float64) Option {
	return func(s *Sampler) {
		if a > 1 {
			s.a = a
		}
	}
}

// WithRand sets the random generator. Without it each sampler draws its
// seed from the process-global source.
func WithRand(r *rand.Rand) Option {
	return func(s *Sampler) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithLogger sets the logger used for progress messages (Debug level).
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProgress logs progress every n steps (0 disables).
func WithProgress(n int) Option {
	return func(s *Sampler) { s.progressEvery = n }
}

// Sampler is an ensemble of walkers advanced with the stretch move.
// It is not safe for concurrent use.
type Sampler struct {
	nWalkers, nDim int
	logProb        LogProbFunc
	a              float64
	rng            *rand.Rand
	logger         *slog.Logger
	progressEvery  int

	// current state
	pos []float64 // nWalkers*nDim
	lnp []float64 // nWalkers

	// history, step-major
	steps    int
	chain    []float64
	lnpChain []float64
	accepted []int
}

// New creates a sampler for nWalkers walkers in nDim dimensions.
func New(nWalkers, nDim int, logProb LogProbFunc, opts ...Option) (*Sampler, error) {
	if nDim < 1 {
		return nil, ErrBadDim
	}
	if nWalkers < 2*nDim {
		return nil, fmt.Errorf("%w: got %d walkers for %d dimensions", ErrTooFewWalkers, nWalkers, nDim)
	}
	if logProb == nil {
		return nil, fmt.Errorf("ensemble: nil log-probability function")
	}
	s := &Sampler{
		nWalkers: nWalkers,
		nDim:     nDim,
		logProb:  logProb,
		a:        2,
		logger:   slog.Default(),
		accepted: make([]int, nWalkers),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s, nil
}

func (s *Sampler) Walkers() int { return s.nWalkers }
func (s *Sampler) Dim() int { return s.nDim }

// Iterations is the number of stored steps.
func (s *Sampler) Iterations() int { return s.steps }

// Run advances the ensemble nSteps times, appending to the stored chain.
// initial holds one position per walker; nil continues from the last state.
// Cancelling ctx stops between steps and returns ctx.Err(); the steps done so
// far stay in the chain.
func (s *Sampler) Run(ctx context.Context, initial [][]float64, nSteps int) error {
	if nSteps < 0 {
		return fmt.Errorf("ensemble: negative step count %d", nSteps)
	}
	if initial != nil {
		if err := s.reset(initial); err != nil {
			return err
		}
	} else if s.pos == nil {
		return ErrNoState
	}

	s.chain = slices.Grow(s.chain, nSteps*s.nWalkers*s.nDim)
	s.lnpChain = slices.Grow(s.lnpChain, nSteps*s.nWalkers)

	perm := make([]int, s.nWalkers)
	for i := range perm {
		perm[i] = i
	}
	proposal := make([]float64, s.nDim)
	half := s.nWalkers / 2

	for step := 0; step < nSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		sets := [2][]int{perm[:half], perm[half:]}
		for i := range sets {
			s.stretch(sets[i], sets[1-i], proposal)
		}

		s.chain = append(s.chain, s.pos...)
		s.lnpChain = append(s.lnpChain, s.lnp...)
		s.steps++

		if s.progressEvery > 0 && (step+1)%s.progressEvery == 0 {
			s.logger.Debug("ensemble progress",
				"step", step+1, "of", nSteps,
				"acceptance", s.meanAcceptance())
		}
	}
	return nil
}

// stretch moves every walker in active towards or away from a random walker
// of comp, accepting with probability min(1, z^(n-1) p(y)/p(x)).
func (s *Sampler) stretch(active, comp []int, y []float64) {
	n := float64(s.nDim)
	for _, k := range active {
		j := comp[s.rng.IntN(len(comp))]
		u := s.rng.Float64()
		z := (s.a - 1) * u
		z = (z + 1) * (z + 1) / s.a

		xk := s.pos[k*s.nDim : (k+1)*s.nDim]
		xj := s.pos[j*s.nDim : (j+1)*s.nDim]
		for d := range y {
			y[d] = xj[d] + z*(xk[d]-xj[d])
		}

		lp := s.logProb(y)
		if math.IsNaN(lp) {
			lp = math.Inf(-1)
		}
		diff := (n-1)*math.Log(z) + lp - s.lnp[k]
		if diff > math.Log(s.rng.Float64()) {
			copy(xk, y)
			s.lnp[k] = lp
			s.accepted[k]++
		}
	}
}

func (s *Sampler) reset(initial [][]float64) error {
	if len(initial) != s.nWalkers {
		return fmt.Errorf("%w: got %d positions, want %d", ErrBadInitial, len(initial), s.nWalkers)
	}
	pos := make([]float64, 0, s.nWalkers*s.nDim)
	for k, x := range initial {
		if len(x) != s.nDim {
			return fmt.Errorf("%w: walker %d has %d coordinates, want %d", ErrBadInitial, k, len(x), s.nDim)
		}
		for d, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: walker %d coordinate %d is %v", ErrBadInitial, k, d, v)
			}
		}
		pos = append(pos, x...)
	}
	lnp := make([]float64, s.nWalkers)
	for k := range lnp {
		lnp[k] = s.logProb(pos[k*s.nDim : (k+1)*s.nDim])
		if math.IsNaN(lnp[k]) {
			return fmt.Errorf("%w: walker %d", ErrNaNLogProb, k)
		}
	}
	s.pos, s.lnp = pos, lnp
	return nil
}

// Chain returns the stored samples; see Chain.Slice for discard and thin.
func (s *Sampler) Chain(discard, thin int) Chain {
	c := Chain{steps: s.steps, walkers: s.nWalkers, dim: s.nDim, data: s.chain}
	return c.Slice(discard, thin)
}

// LogProb returns the stored log-probabilities indexed [step][walker].
func (s *Sampler) LogProb(discard, thin int) [][]float64 {
	c := Chain{steps: s.steps, walkers: s.nWalkers, dim: 1, data: s.lnpChain}.Slice(discard, thin)
	out := make([][]float64, c.Steps())
	for i := range out {
		out[i] = c.data[i*s.nWalkers : (i+1)*s.nWalkers]
	}
	return out
}

// AcceptanceFraction returns the fraction of accepted proposals per walker.
func (s *Sampler) AcceptanceFraction() []float64 {
	out := make([]float64, s.nWalkers)
	if s.steps == 0 {
		return out
	}
	for k, a := range s.accepted {
		out[k] = float64(a) / float64(s.steps)
	}
	return out
}

func (s *Sampler) meanAcceptance() float64 {
	if s.steps == 0 {
		return 0
	}
	var sum int
	for _, a := range s.accepted {
		sum += a
	}
	return float64(sum) / float64(s.steps*s.nWalkers)
}

// AutocorrTime estimates the integrated autocorrelation time per parameter
// of Chain(discard, thin), in units of steps.
func (s *Sampler) AutocorrTime(discard, thin int) ([]float64, error) {
	if thin < 1 {
		thin = 1
	}
	tau, err := IntegratedTime(s.Chain(discard, thin), DefaultWindow, DefaultTolerance)
	for i := range tau {
		tau[i] *= float64(thin)
	}
	return tau, err
}

// Ball returns n positions center + scale·N(0,1), drawn independently per
// walker and coordinate. rng nil uses the process-global source.
func Ball(center []float64, scale float64, n int, rng *rand.Rand) [][]float64 {
	norm := rand.NormFloat64
	if rng != nil {
		norm = rng.NormFloat64
	}
	out := make([][]float64, n)
	for k := range out {
		x := make([]float64, len(center))
		for d, c := range center {
			x[d] = c + scale*norm()
		}
		out[k] = x
	}
	return out
}
