// Package ensemble provides an affine-invariant ensemble MCMC sampler
// (Goodman & Weare 2010) with the stretch move, in the form popularised by
// emcee (Foreman-Mackey et al. 2013).
//
// Overview
//
//   - New(nWalkers, nDim, logProb, opts...) builds a sampler. logProb maps a
//     position to a log-density; -Inf marks zero density and is always
//     rejected.
//
//   - Run(ctx, initial, nSteps) advances every walker nSteps times. Walkers
//     are split into two randomly shuffled halves each step and each half is
//     moved using positions from the other ("red-blue" update), so the
//     ensemble needs at least 2*nDim walkers. Calling Run again with nil
//     initial positions continues from the last state.
//
//   - Chain(discard, thin) returns the stored (step, walker, param) samples
//     after dropping the first discard steps and keeping every thin-th one.
//     Chain.Flat pools walkers and steps into (sample, param) rows.
//
//   - AutocorrTime(discard, thin) estimates the integrated autocorrelation
//     time per parameter from the walker-averaged autocorrelation function
//     (FFT based) with Sokal's automatic window (c = 5). When the chain is
//     shorter than 50 autocorrelation times the estimate is still returned
//     along with an *AutocorrError wrapping ErrChainTooShort.
//
// Randomness comes from a math/rand/v2 generator; pass WithRand with a
// seeded generator for reproducible runs.
//
// Example
//
//	s, err := ensemble.New(32, 2, func(x []float64) float64 {
//	    return -0.5 * (x[0]*x[0] + x[1]*x[1])
//	})
//	if err != nil { return err }
//	if err := s.Run(ctx, ensemble.Ball([]float64{0, 0}, 1e-4, 32, nil), 2000); err != nil {
//	    return err
//	}
//	samples := s.Chain(500, 10).Flat()
package ensemble
