package ensemble

import "errors"

var (
	// ErrTooFewWalkers indicates fewer than two walkers per dimension.
	ErrTooFewWalkers = errors.New("ensemble: need at least 2*ndim walkers")

	// ErrBadDim indicates ndim < 1.
	ErrBadDim = errors.New("ensemble: ndim must be >= 1")

	// ErrBadInitial indicates an initial ensemble of the wrong shape or with
	// non-finite coordinates.
	ErrBadInitial = errors.New("ensemble: bad initial positions")

	// ErrNaNLogProb indicates the log-probability returned NaN for an
	// initial position.
	ErrNaNLogProb = errors.New("ensemble: log-probability is NaN at initial position")

	// ErrNoState indicates Run was called without initial positions on a
	// sampler that has not run yet.
	ErrNoState = errors.New("ensemble: no initial positions and no previous state")

	// ErrEmptyChain indicates an operation on a chain without samples.
	ErrEmptyChain = errors.New("ensemble: chain is empty")

	// ErrChainTooShort indicates that the chain is too short for a reliable
	// integrated autocorrelation time estimate.
	ErrChainTooShort = errors.New("ensemble: chain too short for autocorrelation estimate")
)
