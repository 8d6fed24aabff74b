package sem

import (
	"fmt"
	"log/slog"
	"strings"
)

// Geometry of the emitting region.
type Geometry string

const (
	Spherical Geometry = "spherical"
	Conical   Geometry = "conical"
)

// ParseGeometry accepts "spherical" or "conical" in any case.
func ParseGeometry(s string) (Geometry, error) {
	switch g := Geometry(strings.ToLower(strings.TrimSpace(s))); g {
	case Spherical, Conical:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrGeometry, s)
	}
}

// factors returns the area and volume filling factors (fA, fV).
func (g Geometry) factors() (fA, fV float64, err error) {
	switch g {
	case Spherical:
		return 1, 4.0 / 3, nil
	case Conical:
		return 0.1, 4.0 / 3, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrGeometry, string(g))
	}
}

// Config holds the observed peak and source properties.
// Units:
//   - Vp: GHz, Fvp: mJy
//   - DL: Mpc
//   - T: days since launch
type Config struct {
	Vp       float64
	Fvp      float64
	P        float64
	DL       float64
	Z        float64
	T        float64
	Geometry Geometry
	Va, Vm   float64 // GHz; set both only when va < vm is identified
	EpsilonE float64 // fraction of energy in electrons
	Logger   *slog.Logger
}

func _defaultConfig() *Config {
	return &Config{
		Vp:       4.0,
		Fvp:      1.14,
		P:        3,
		DL:       90,
		Z:        0.0206,
		T:        246,
		Geometry: Spherical,
		EpsilonE: 0.1,
	}
}

// DefaultConfig returns a copy of the defaults.
func DefaultConfig() Config { return *_defaultConfig() }

// Analysis is the full set of derived quantities.
type Analysis struct {
	Geometry        Geometry `json:"geometry"`
	TimeDays        float64  `json:"t_days"`
	Radius          float64  `json:"radius_cm"`
	Energy          float64  `json:"energy_erg"`
	BField          float64  `json:"b_field_g"`
	ElectronNumber  float64  `json:"electron_number"`
	AmbientDensity  float64  `json:"ambient_density_cm3"`
	OutflowVelocity float64  `json:"outflow_velocity_c"`
	OutflowMass     float64  `json:"outflow_mass_g"`
	OutflowMassSun  float64  `json:"outflow_mass_msun"`
}
