// Package spectrum implements the smoothly broken double power law used to
// model synchrotron self-absorbed radio spectra.
//
// A spectrum is selected by a break number (1..11) following the spectral
// breaks of Granot & Sari (2002, ApJ 568, 820), Figure 1. Each break fixes an
// asymptotic slope below the break (β1), one above it (β2), and a smoothness
// s; any of the three may depend on the electron power-law index p:
//
//	Fv = Fvb * ((v/vb)^(-β1*s) + (v/vb)^(-β2*s))^(-1/s)
//
// The curve passes through Fvb·2^(-1/s) at v = vb and tends to Fvb·(v/vb)^β1
// well below vb and Fvb·(v/vb)^β2 well above it. vb is the break frequency,
// not the peak; the peak is found numerically by the fit package.
//
// Breaks 1, 8, 10 and 11 do not depend on p at all: fitting them leaves the
// p posterior equal to its prior (see Break.Identifiable).
//
// Example
//
//	b, err := spectrum.Lookup(5)
//	if err != nil { return err }
//	fv := b.Flux(5.04, 40, 3, 2.8) // mJy at 5.04 GHz
package spectrum
