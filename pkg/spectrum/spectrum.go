package spectrum

import (
	"fmt"
	"math"
)

// Break selects one of the 11 spectral break shapes.
type Break int

// affine is c + k*p.
type affine struct{ c, k float64 }

func (a affine) at(p float64) float64 { return a.c + a.k*p }

func constant(c float64) affine { return affine{c: c} }

type shape struct {
	beta1, beta2, s affine
	regime          string
}

// shapes is indexed by break number; index 0 is unused.
var shapes = [...]shape{
	{},
	{beta1: constant(2), beta2: constant(1.0 / 3), s: constant(1.64), regime: "vsa < vm (slow cooling)"},
	{beta1: constant(1.0 / 3), beta2: affine{0.5, -0.5}, s: affine{1.84, -0.4}},
	{beta1: affine{0.5, -0.5}, beta2: affine{0, -0.5}, s: affine{1.15, -0.06}},
	{beta1: constant(2), beta2: constant(2.5), s: affine{-1.41, 3.44}},
	{beta1: constant(2.5), beta2: affine{0.5, -0.5}, s: affine{1.47, -0.21}, regime: "vm < vsa < vc (slow cooling)"},
	{beta1: constant(2.5), beta2: affine{0, -0.5}, s: affine{0.94, -0.14}, regime: "vsa > vm (slow or fast cooling)"},
	{beta1: constant(2), beta2: constant(11.0 / 8), s: affine{1.99, -0.04}},
	{beta1: constant(11.0 / 8), beta2: constant(-0.5), s: constant(0.907), regime: "vc < vsa < vm (fast cooling)"},
	{beta1: constant(-0.5), beta2: affine{0, -0.5}, s: affine{3.34, -0.82}},
	{beta1: constant(11.0 / 8), beta2: constant(1.0 / 3), s: constant(1.213)},
	{beta1: constant(1.0 / 3), beta2: constant(-0.5), s: constant(0.597), regime: "vsa < vc (fast cooling)"},
}

// Lookup validates n and returns it as a Break.
func Lookup(n int) (Break, error) {
	b := Break(n)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidBreak, n)
	}
	return b, nil
}

// Breaks returns all valid break numbers in ascending order.
func Breaks() []Break {
	out := make([]Break, 0, len(shapes)-1)
	for i := 1; i < len(shapes); i++ {
		out = append(out, Break(i))
	}
	return out
}

// Valid reports whether b is in 1..11.
func (b Break) Valid() bool { return b >= 1 && int(b) < len(shapes) }

// Slopes returns (β1, β2, s) for index p.
// It panics on an invalid break; use Lookup first.
func (b Break) Slopes(p float64) (beta1, beta2, s float64) {
	sh := b.shape()
	return sh.beta1.at(p), sh.beta2.at(p), sh.s.at(p)
}

// Identifiable reports whether the shape depends on p at all.
func (b Break) Identifiable() bool {
	sh := b.shape()
	return sh.beta1.k != 0 || sh.beta2.k != 0 || sh.s.k != 0
}

// Regime returns the cooling regime the break is usually associated with,
// or "" when none is recorded.
func (b Break) Regime() string { return b.shape().regime }

func (b Break) String() string { return fmt.Sprintf("break %d", int(b)) }

// Flux returns the model flux density at frequency v.
// Units follow the inputs: v and vb share a unit, the result has fvb's unit.
func (b Break) Flux(v, fvb, vb, p float64) float64 {
	beta1, beta2, s := b.Slopes(p)
	return flux(v, fvb, vb, beta1, beta2, s)
}

// Spectrum evaluates Flux at every frequency in vs, writing into dst when it
// has the right length and allocating otherwise.
func (b Break) Spectrum(dst, vs []float64, fvb, vb, p float64) []float64 {
	if len(dst) != len(vs) {
		dst = make([]float64, len(vs))
	}
	beta1, beta2, s := b.Slopes(p)
	for i, v := range vs {
		dst[i] = flux(v, fvb, vb, beta1, beta2, s)
	}
	return dst
}

func (b Break) shape() shape {
	if !b.Valid() {
		panic(fmt.Sprintf("spectrum: invalid break %d", int(b)))
	}
	return shapes[b]
}

func flux(v, fvb, vb, beta1, beta2, s float64) float64 {
	x := v / vb
	return fvb * math.Pow(math.Pow(x, -beta1*s)+math.Pow(x, -beta2*s), -1/s)
}
