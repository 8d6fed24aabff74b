package ensemble

import "fmt"

// Chain holds samples indexed by (step, walker, param), stored step-major.
// A Chain is never mutated after it is returned.
type Chain struct {
	steps, walkers, dim int
	data                []float64
}

// NewChain wraps data (len steps*walkers*dim, step-major) as a Chain.
func NewChain(steps, walkers, dim int, data []float64) (Chain, error) {
	if steps < 0 || walkers < 1 || dim < 1 {
		return Chain{}, fmt.Errorf("ensemble: bad chain shape (%d, %d, %d)", steps, walkers, dim)
	}
	if len(data) != steps*walkers*dim {
		return Chain{}, fmt.Errorf("ensemble: chain data has %d values, want %d", len(data), steps*walkers*dim)
	}
	return Chain{steps: steps, walkers: walkers, dim: dim, data: data}, nil
}

func (c Chain) Steps() int { return c.steps }
func (c Chain) Walkers() int { return c.walkers }
func (c Chain) Dim() int { return c.dim }

// Len is the number of stored samples (steps × walkers).
func (c Chain) Len() int { return c.steps * c.walkers }

// At returns one coordinate.
func (c Chain) At(step, walker, param int) float64 {
	return c.data[c.offset(step, walker)+param]
}

// Position returns a read-only view of one walker's position at one step.
func (c Chain) Position(step, walker int) []float64 {
	off := c.offset(step, walker)
	return c.data[off : off+c.dim : off+c.dim]
}

func (c Chain) offset(step, walker int) int {
	return (step*c.walkers + walker) * c.dim
}

// Slice drops the first discard steps and keeps every thin-th step of the
// rest, like chain[discard::thin]. thin < 1 is treated as 1.
func (c Chain) Slice(discard, thin int) Chain {
	if thin < 1 {
		thin = 1
	}
	if discard < 0 {
		discard = 0
	}
	out := Chain{walkers: c.walkers, dim: c.dim}
	if discard >= c.steps {
		return out
	}
	out.steps = (c.steps - discard + thin - 1) / thin
	stride := c.walkers * c.dim
	out.data = make([]float64, 0, out.steps*stride)
	for s := discard; s < c.steps; s += thin {
		out.data = append(out.data, c.data[s*stride:(s+1)*stride]...)
	}
	return out
}

// Flat pools steps and walkers into rows of one sample each, in
// step-major order. Rows are views into the chain.
func (c Chain) Flat() [][]float64 {
	rows := make([][]float64, 0, c.Len())
	for s := 0; s < c.steps; s++ {
		for w := 0; w < c.walkers; w++ {
			rows = append(rows, c.Position(s, w))
		}
	}
	return rows
}

// Param returns every sample of one parameter, pooled over steps and
// walkers in the same order as Flat.
func (c Chain) Param(param int) []float64 {
	out := make([]float64, 0, c.Len())
	for i := param; i < len(c.data); i += c.dim {
		out = append(out, c.data[i])
	}
	return out
}

// Series returns the time series of one walker's parameter.
func (c Chain) Series(walker, param int) []float64 {
	out := make([]float64, c.steps)
	for s := range out {
		out[s] = c.At(s, walker, param)
	}
	return out
}
