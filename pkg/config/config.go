// Package config loads a spectrafit run file.
//
// A run file carries the observations, the fit settings, the optional
// equipartition settings and the output paths. Values are layered as
// defaults < file < SPECTRAFIT_* environment variables and validated once
// at the end.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ja7ad/spectrafit/pkg/fit"
	"github.com/ja7ad/spectrafit/pkg/sem"
)

// Run is one run file.
type Run struct {
	Name         string       `json:"name" yaml:"name"`
	Observations Observations `json:"observations" yaml:"observations"`
	Fit          Fit          `json:"fit" yaml:"fit"`
	SEM          SEM          `json:"sem" yaml:"sem"`
	Output       Output       `json:"output" yaml:"output"`
}

// Observations are in GHz and mJy. An empty err_up reuses err_low.
type Observations struct {
	Frequency []float64 `json:"frequency" yaml:"frequency" validate:"required,dive,gt=0"`
	Flux      []float64 `json:"flux" yaml:"flux" validate:"required"`
	ErrLow    []float64 `json:"err_low" yaml:"err_low" validate:"required,dive,gte=0"`
	ErrUp     []float64 `json:"err_up,omitempty" yaml:"err_up,omitempty" validate:"omitempty,dive,gte=0"`
	Quiescent []float64 `json:"quiescent,omitempty" yaml:"quiescent,omitempty"`
}

// Fit mirrors fit.Config.
type Fit struct {
	Break   int       `json:"break" yaml:"break" validate:"min=1,max=11"`
	Walkers int       `json:"walkers" yaml:"walkers" validate:"gte=8"`
	Steps   int       `json:"steps" yaml:"steps" validate:"gt=0"`
	Burnin  int       `json:"burnin" yaml:"burnin" validate:"gte=0,ltfield=Steps"`
	Thin    int       `json:"thin" yaml:"thin" validate:"gte=1"`
	Initial []float64 `json:"initial" yaml:"initial" validate:"len=3"`
	Stretch float64   `json:"stretch" yaml:"stretch" validate:"gt=1"`
	Seed    uint64    `json:"seed" yaml:"seed"`
	Grid    Grid      `json:"grid" yaml:"grid"`
}

// Grid mirrors fit.Grid.
type Grid struct {
	Min    float64 `json:"min" yaml:"min" validate:"gte=0"`
	Max    float64 `json:"max" yaml:"max" validate:"gtfield=Min"`
	Points int     `json:"points" yaml:"points" validate:"gte=2"`
}

// SEM holds the source properties for the equipartition analysis run on the
// fitted peak.
type SEM struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	DL       float64 `json:"dl_mpc" yaml:"dl_mpc" validate:"gt=0"`
	Z        float64 `json:"z" yaml:"z" validate:"gt=0"`
	T        float64 `json:"t_days" yaml:"t_days" validate:"gt=0"`
	Geometry string  `json:"geometry" yaml:"geometry" validate:"oneof=spherical conical"`
	Va       float64 `json:"va,omitempty" yaml:"va,omitempty" validate:"gte=0"`
	Vm       float64 `json:"vm,omitempty" yaml:"vm,omitempty" validate:"gte=0"`
	EpsilonE float64 `json:"epsilon_e" yaml:"epsilon_e" validate:"gt=0,lte=1"`
}

// Output paths; empty disables the writer.
type Output struct {
	CSV  string `json:"csv,omitempty" yaml:"csv,omitempty"`
	JSON string `json:"json,omitempty" yaml:"json,omitempty"`
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a run with the library defaults and no observations.
func Default() Run {
	fc := fit.DefaultConfig()
	sc := sem.DefaultConfig()
	return Run{
		Name: "spectrafit",
		Fit: Fit{
			Break:   fc.Break,
			Walkers: fc.Walkers,
			Steps:   fc.Steps,
			Burnin:  fc.BurninSteps(),
			Thin:    fc.Thin,
			Initial: fc.Initial[:],
			Stretch: fc.Stretch,
			Grid:    Grid{Min: fc.Grid.Min, Max: fc.Grid.Max, Points: fc.Grid.Points},
		},
		SEM: SEM{
			DL:       sc.DL,
			Z:        sc.Z,
			T:        sc.T,
			Geometry: string(sc.Geometry),
			EpsilonE: sc.EpsilonE,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (Run, error) {
	run, err := Read(path)
	if err != nil {
		return run, err
	}
	if err := run.Validate(); err != nil {
		return run, fmt.Errorf("invalid run file: %w", err)
	}
	return run, nil
}

// Read is Load without validation, for callers that layer more overrides
// (command-line flags) before calling Validate.
func Read(path string) (Run, error) {
	run := Default()

	if path != "" {
		if err := loadFile(path, &run); err != nil {
			return run, fmt.Errorf("load run file: %w", err)
		}
	}
	if err := loadFromEnv(&run); err != nil {
		return run, err
	}
	return run, nil
}

func loadFile(path string, run *Run) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, run); err != nil {
		if jsonErr := json.Unmarshal(data, run); jsonErr != nil {
			return fmt.Errorf("parse (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadFromEnv(run *Run) error {
	ints := map[string]*int{
		"SPECTRAFIT_BREAK":   &run.Fit.Break,
		"SPECTRAFIT_WALKERS": &run.Fit.Walkers,
		"SPECTRAFIT_STEPS":   &run.Fit.Steps,
		"SPECTRAFIT_BURNIN":  &run.Fit.Burnin,
		"SPECTRAFIT_THIN":    &run.Fit.Thin,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = i
		}
	}
	if v := os.Getenv("SPECTRAFIT_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SPECTRAFIT_SEED: %w", err)
		}
		run.Fit.Seed = seed
	}
	if v := os.Getenv("SPECTRAFIT_NAME"); v != "" {
		run.Name = v
	}
	return nil
}

// Validate checks struct tags and the observation shapes.
func (r Run) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return r.FitObservations().Validate()
}

// FitObservations converts the observations for fit.New.
func (r Run) FitObservations() fit.Observations {
	o := r.Observations
	up := o.ErrUp
	if len(up) == 0 {
		up = o.ErrLow
	}
	return fit.Observations{
		Frequency: o.Frequency,
		Flux:      o.Flux,
		ErrLow:    o.ErrLow,
		ErrUp:     up,
		Quiescent: o.Quiescent,
	}
}

// FitConfig converts the fit section for fit.New.
func (r Run) FitConfig(logger *slog.Logger) fit.Config {
	f := r.Fit
	cfg := fit.Config{
		Break:   f.Break,
		Walkers: f.Walkers,
		Steps:   f.Steps,
		Burnin:  fit.Steps(f.Burnin),
		Thin:    f.Thin,
		Stretch: f.Stretch,
		Seed:    f.Seed,
		Grid:    fit.Grid{Min: f.Grid.Min, Max: f.Grid.Max, Points: f.Grid.Points},
		Logger:  logger,
	}
	copy(cfg.Initial[:], f.Initial)
	return cfg
}

// SEMConfig converts the sem section for sem.New with a fitted peak.
func (r Run) SEMConfig(vp, fvp, p float64, logger *slog.Logger) sem.Config {
	s := r.SEM
	return sem.Config{
		Vp:       vp,
		Fvp:      fvp,
		P:        p,
		DL:       s.DL,
		Z:        s.Z,
		T:        s.T,
		Geometry: sem.Geometry(s.Geometry),
		Va:       s.Va,
		Vm:       s.Vm,
		EpsilonE: s.EpsilonE,
		Logger:   logger,
	}
}
