package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ja7ad/spectrafit/pkg/ensemble"
	"github.com/ja7ad/spectrafit/pkg/posterior"
	"github.com/ja7ad/spectrafit/pkg/spectrum"
	"github.com/ja7ad/spectrafit/pkg/util"
)

// Extract summarizes chain[burnin::thin] pooled over walkers. The chain must
// carry posterior.NDim parameters. Extract does not touch the chain and
// returns the same Result for the same input.
//
// Each parameter gets its median with the distances to the 16th and 84th
// percentiles. The model is evaluated on grid with the medians, with the
// 84th percentiles (upper curve) and with the 16th percentiles (lower
// curve). The peak is the first grid maximum of the median curve:
//
//	vp = grid[argmax], Fp = curve[argmax]
//	σFp = (|up[argmax]-Fp| + |Fp-low[argmax]|) / 2
//	σvp = step / 2
func Extract(chain ensemble.Chain, burnin, thin int, brk spectrum.Break, grid Grid) (Result, error) {
	if chain.Dim() != posterior.NDim {
		return Result{}, fmt.Errorf("fit: chain has %d parameters, want %d", chain.Dim(), posterior.NDim)
	}
	if !brk.Valid() {
		return Result{}, fmt.Errorf("fit: %w: got %d", spectrum.ErrInvalidBreak, int(brk))
	}
	if err := grid.validate(); err != nil {
		return Result{}, err
	}
	flat := chain.Slice(burnin, thin)
	if flat.Len() == 0 {
		return Result{}, fmt.Errorf("%w: %d steps, burn-in %d", ErrNoSamples, chain.Steps(), burnin)
	}

	res := Result{Break: brk, Samples: flat.Len()}
	var mid, hi, lo [posterior.NDim]float64
	for d := 0; d < posterior.NDim; d++ {
		xs := flat.Param(d)
		q := util.Percentiles(xs, 16, 50, 84)
		lo[d], mid[d], hi[d] = q[0], q[1], q[2]
		res.Mean[d], res.Std[d] = stat.MeanStdDev(xs, nil)
	}
	est := func(d int) Estimate {
		return Estimate{Value: mid[d], Lower: mid[d] - lo[d], Upper: hi[d] - mid[d]}
	}
	res.Fvb = est(posterior.IdxFvb)
	res.Vb = est(posterior.IdxVb)
	res.P = est(posterior.IdxP)
	res.LogF = est(posterior.IdxLogF)

	vs := floats.Span(make([]float64, grid.Points), grid.Min, grid.Max)
	curve := func(th [posterior.NDim]float64) []float64 {
		return brk.Spectrum(nil, vs, th[posterior.IdxFvb], th[posterior.IdxVb], th[posterior.IdxP])
	}
	c := Curve{Frequency: vs, Flux: curve(mid), FluxUp: curve(hi), FluxLow: curve(lo)}
	c.PeakIndex = util.ArgMax(c.Flux)
	if c.PeakIndex < 0 {
		return Result{}, ErrNoPeak
	}
	if !util.Finite(c.Flux[c.PeakIndex]) {
		return Result{}, fmt.Errorf("%w: flux diverges at %v GHz", ErrNoPeak, vs[c.PeakIndex])
	}
	res.Curve = c

	k := c.PeakIndex
	fp := c.Flux[k]
	devUp := math.Abs(c.FluxUp[k] - fp)
	devLow := math.Abs(fp - c.FluxLow[k])
	sigma := (devUp + devLow) / 2
	res.Fp = Estimate{Value: fp, Lower: sigma, Upper: sigma}

	half := grid.Step() / 2
	res.Vp = Estimate{Value: vs[k], Lower: half, Upper: half}
	return res, nil
}

