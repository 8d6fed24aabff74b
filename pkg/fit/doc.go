// Package fit drives the posterior sampling of a radio spectrum and turns
// the chain into peak estimates.
//
// A Fitter owns the observations and the merged Config. Run scatters the
// walkers around the initial guess, samples the posterior of
// (Fvb, vb, p, log f) with the ensemble sampler and hands the chain to
// Extract, which reports the medians with 16th/84th percentile
// uncertainties and the peak (Fp, vp) of the fitted curve on a grid.
//
//	f, err := fit.New(obs, &fit.Config{Break: 5, Seed: 1})
//	if err != nil {
//		return err
//	}
//	res, _, err := f.Run(ctx)
package fit
