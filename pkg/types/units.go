package types

import (
	"fmt"
	"math"
)

// Flux is a flux density in millijansky.
type Flux float64

// Humanized returns a human-readable string with automatic unit (µJy, mJy, Jy).
func (f Flux) Humanized() string {
	v := float64(f)
	a := math.Abs(v)
	switch {
	case a >= 1e3:
		return fmt.Sprintf("%.2f Jy", v/1e3)
	case a >= 1 || a == 0:
		return fmt.Sprintf("%.2f mJy", v)
	default:
		return fmt.Sprintf("%.2f µJy", v*1e3)
	}
}

// MilliJansky returns the value in mJy.
func (f Flux) MilliJansky() float64 { return float64(f) }

// Jansky returns the value in Jy.
func (f Flux) Jansky() float64 { return float64(f) / 1e3 }

// CGS returns the value in erg s^-1 cm^-2 Hz^-1 (1 mJy = 1e-26).
func (f Flux) CGS() float64 { return float64(f) * 1e-26 }

// Frequency is an observing frequency in gigahertz.
type Frequency float64

// Humanized returns a human-readable string with automatic unit (MHz, GHz).
func (v Frequency) Humanized() string {
	g := float64(v)
	if math.Abs(g) < 1 && g != 0 {
		return fmt.Sprintf("%.1f MHz", g*1e3)
	}
	return fmt.Sprintf("%.2f GHz", g)
}

// GHz returns the value in GHz.
func (v Frequency) GHz() float64 { return float64(v) }

// Hz returns the value in Hz.
func (v Frequency) Hz() float64 { return float64(v) * 1e9 }
