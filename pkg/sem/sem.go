// Package sem derives physical outflow parameters from an observed
// synchrotron peak using the Newtonian (Γ = 1) equipartition relations of
// Barniol Duran, Nakar & Piran (2013).
package sem

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	MpcToCm      = 3.0857e24      // cm
	C            = 2.998e10       // cm/s
	SolarMass    = 1.989e33       // g
	ElectronMass = 9.10938356e-31 // kg
	ProtonMass   = 1.672621e-27   // kg

	secondsPerDay = 24 * 60 * 60
)

// shellFraction is the inner radius of the emitting shell in units of R.
const shellFraction = 0.9

// Model evaluates the equipartition relations for one Config.
type Model struct {
	cfg    *Config
	fA, fV float64
	eta    float64
	d      float64 // cm
	t      float64 // s
	logger *slog.Logger
}

// New merges cfg over the defaults and validates the result.
// Notes:
//   - Vp/Fvp/P/DL/Z/T/EpsilonE must be > 0 to override defaults.
//   - An empty Geometry keeps the default.
//   - eta = Va/Vm when both are set, 1 otherwise.
func New(cfg *Config) (*Model, error) {
	merged := *_defaultConfig()
	if cfg != nil {
		if cfg.Vp > 0 {
			merged.Vp = cfg.Vp
		}
		if cfg.Fvp > 0 {
			merged.Fvp = cfg.Fvp
		}
		if cfg.P > 0 {
			merged.P = cfg.P
		}
		if cfg.DL > 0 {
			merged.DL = cfg.DL
		}
		if cfg.Z > 0 {
			merged.Z = cfg.Z
		}
		if cfg.T > 0 {
			merged.T = cfg.T
		}
		if cfg.EpsilonE > 0 {
			merged.EpsilonE = cfg.EpsilonE
		}
		if cfg.Geometry != "" {
			merged.Geometry = cfg.Geometry
		}
		merged.Va, merged.Vm = cfg.Va, cfg.Vm
		merged.Logger = cfg.Logger
	}
	if merged.Logger == nil {
		merged.Logger = slog.Default()
	}

	for name, v := range map[string]float64{
		"vp": merged.Vp, "fvp": merged.Fvp, "dl": merged.DL, "t": merged.T, "epsilon_e": merged.EpsilonE,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s=%v", ErrNonPositive, name, v)
		}
	}
	if !(merged.P > 2) {
		return nil, fmt.Errorf("%w: got %v", ErrIndex, merged.P)
	}
	fA, fV, err := merged.Geometry.factors()
	if err != nil {
		return nil, err
	}

	eta := 1.0
	switch {
	case merged.Va > 0 && merged.Vm > 0:
		eta = merged.Va / merged.Vm
	case merged.Va != 0 || merged.Vm != 0:
		return nil, fmt.Errorf("%w: va=%v vm=%v", ErrFrequencies, merged.Va, merged.Vm)
	}

	return &Model{
		cfg:    &merged,
		fA:     fA,
		fV:     fV,
		eta:    eta,
		d:      merged.DL * MpcToCm,
		t:      merged.T * secondsPerDay,
		logger: merged.Logger,
	}, nil
}

// Config returns the merged configuration.
func (m *Model) Config() Config { return *m.cfg }

// electrons returns chi_e = (p-2)/(p-1)·εe·mp/me, the equipartition Lorentz
// factor term LF = 2/chi_e + 1 and xi = 1 + 1/εe.
func (m *Model) electrons() (chi, lf, xi float64) {
	p, eps := m.cfg.P, m.cfg.EpsilonE
	chi = (p - 2) / (p - 1) * eps * (ProtonMass / ElectronMass)
	return chi, 2/chi + 1, 1 + 1/eps
}

// Radius is the equipartition radius Req in cm.
func (m *Model) Radius() float64 {
	chi, lf, xi := m.electrons()
	p := m.cfg.P
	q := 13 + 2*p

	prefac := 1e17 *
		math.Pow(21.8*math.Pow(525, p-1), 1/q) *
		math.Pow(chi, (2-p)/q) *
		math.Pow(lf, (p+8)/q) *
		math.Pow(lf-1, (2-p)/q) *
		math.Pow(xi, 1/q)

	return prefac *
		math.Pow(m.cfg.Fvp, (6+p)/q) *
		math.Pow(m.d/1e28, 2*(p+6)/q) /
		(m.cfg.Vp / 10) *
		math.Pow(1+m.cfg.Z, -(19+3*p)/q) *
		math.Pow(m.fA, -(5+p)/q) *
		math.Pow(m.fV, -1/q) *
		math.Pow(4, 1/q)
}

// Energy is the equipartition energy Eeq in erg.
func (m *Model) Energy() float64 {
	chi, lf, xi := m.electrons()
	p := m.cfg.P
	q := 13 + 2*p

	prefac := 1.3e48 *
		math.Pow(21.8, -2*(p+1)/q) *
		math.Pow(math.Pow(525, p-1)*math.Pow(chi, 2-p), 11/q) *
		math.Pow(lf, (16-5*p)/q) *
		math.Pow(lf-1, -11*(p-2)/q) *
		math.Pow(xi, 11/q)

	return prefac *
		math.Pow(m.cfg.Fvp, (14+3*p)/q) *
		math.Pow(m.d/1e28, 2*(3*p+14)/q) /
		(m.cfg.Vp / 10) *
		math.Pow(1+m.cfg.Z, (5*p-27)/q) *
		math.Pow(m.fA, -3*(p+1)/q) *
		math.Pow(m.fV, 2*(p+1)/q) *
		math.Pow(4, 11/q)
}

// BField is the magnetic field in G at radius r (cm).
func (m *Model) BField(r float64) float64 {
	return 1.3e-2 *
		math.Pow(m.cfg.Fvp, -2) *
		math.Pow(m.d/1e28, -4) *
		math.Pow(m.cfg.Vp/10, 5) *
		math.Pow(m.eta, -10.0/3) *
		math.Pow(1+m.cfg.Z, 7) *
		m.fA * m.fA * math.Pow(r/1e17, 4)
}

// ElectronNumber is the number of radiating electrons at radius r (cm).
func (m *Model) ElectronNumber(r float64) float64 {
	return 1e54 *
		math.Pow(m.cfg.Fvp, 3) *
		math.Pow(m.d/1e28, 6) *
		math.Pow(m.cfg.Vp/10, -5) *
		math.Pow(m.eta, 10.0/3) *
		math.Pow(1+m.cfg.Z, -8) /
		(m.fA * m.fA * math.Pow(r/1e17, 4))
}

// AmbientDensity spreads ne electrons over a shell between 0.9r and r and
// returns the number density in cm^-3.
func AmbientDensity(ne, r float64) float64 {
	inner := shellFraction * r
	return ne / (4.0 / 3 * math.Pi * (r*r*r - inner*inner*inner))
}

// OutflowVelocity solves β/(1-β) = r(1+z)/(c·t) for β, in units of c.
func (m *Model) OutflowVelocity(r float64) float64 {
	f := r * (1 + m.cfg.Z) / (C * m.t)
	return f / (1 + f)
}

// OutflowMass is the mass in g carrying kinetic energy e (erg) at β·c.
func OutflowMass(e, beta float64) float64 {
	v := beta * C
	return 2 * e / (v * v)
}

// Analyze evaluates every relation.
func (m *Model) Analyze() Analysis {
	r := m.Radius()
	e := m.Energy()
	ne := m.ElectronNumber(r)
	beta := m.OutflowVelocity(r)
	mass := OutflowMass(e, beta)

	a := Analysis{
		Geometry:        m.cfg.Geometry,
		TimeDays:        m.cfg.T,
		Radius:          r,
		Energy:          e,
		BField:          m.BField(r),
		ElectronNumber:  ne,
		AmbientDensity:  AmbientDensity(ne, r),
		OutflowVelocity: beta,
		OutflowMass:     mass,
		OutflowMassSun:  mass / SolarMass,
	}
	m.logger.Info("equipartition analysis",
		"geometry", a.Geometry,
		"t_days", a.TimeDays,
		"radius_cm", a.Radius,
		"energy_erg", a.Energy,
		"density_cm3", a.AmbientDensity,
		"b_g", a.BField)
	return a
}
