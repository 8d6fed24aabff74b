package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ja7ad/spectrafit/pkg/config"
	"github.com/ja7ad/spectrafit/pkg/sem"
)

// semOpts are the source properties shared by `fit --sem` and `sem`.
type semOpts struct {
	dl       float64
	z        float64
	t        float64
	geometry string
	va       float64
	vm       float64
	epsE     float64
}

func (s *semOpts) register(f *pflag.FlagSet, d config.SEM) {
	f.Float64Var(&s.dl, "dl", d.DL, "luminosity distance in Mpc")
	f.Float64Var(&s.z, "z", d.Z, "redshift")
	f.Float64Var(&s.t, "t", d.T, "days since the outflow was launched")
	f.StringVar(&s.geometry, "geometry", d.Geometry, "outflow geometry (spherical, conical)")
	f.Float64Var(&s.va, "va", 0, "self-absorption frequency in GHz, only when va < vm")
	f.Float64Var(&s.vm, "vm", 0, "characteristic frequency in GHz, only when va < vm")
	f.Float64Var(&s.epsE, "epsilon-e", d.EpsilonE, "fraction of energy in electrons")
}

func (s *semOpts) apply(fs *pflag.FlagSet, dst *config.SEM) {
	setIf(fs, "dl", &dst.DL, s.dl)
	setIf(fs, "z", &dst.Z, s.z)
	setIf(fs, "t", &dst.T, s.t)
	setIf(fs, "geometry", &dst.Geometry, s.geometry)
	setIf(fs, "va", &dst.Va, s.va)
	setIf(fs, "vm", &dst.Vm, s.vm)
	setIf(fs, "epsilon-e", &dst.EpsilonE, s.epsE)
}

// semReport is the JSON written by `sem --json`.
type semReport struct {
	RunID     string       `json:"run_id"`
	CreatedAt time.Time    `json:"created_at"`
	Vp        float64      `json:"vp_ghz"`
	Fvp       float64      `json:"fvp_mjy"`
	P         float64      `json:"p"`
	Analysis  sem.Analysis `json:"analysis"`
}

func newSEMCmd() *cobra.Command {
	var (
		src        semOpts
		vp, fvp, p float64
		jsonPath   string
	)
	d := config.Default()
	semDefaults := sem.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "sem",
		Short: "Equipartition outflow parameters from an observed peak",
		RunE: func(cmd *cobra.Command, args []string) error {
			run := config.Default()
			src.apply(cmd.Flags(), &run.SEM)

			geo, err := sem.ParseGeometry(run.SEM.Geometry)
			if err != nil {
				return err
			}
			run.SEM.Geometry = string(geo)

			m, err := sem.New(ptr(run.SEMConfig(vp, fvp, p, slog.Default())))
			if err != nil {
				return err
			}
			a := m.Analyze()
			printAnalysis(a)

			if jsonPath == "" {
				return nil
			}
			rep := semReport{
				RunID:     uuid.NewString(),
				CreatedAt: time.Now(),
				Vp:        vp,
				Fvp:       fvp,
				P:         p,
				Analysis:  a,
			}
			if err := writeJSON(jsonPath, rep); err != nil {
				return fmt.Errorf("write json: %w", err)
			}
			slog.Info("wrote analysis", "path", jsonPath, "run_id", rep.RunID)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&vp, "vp", semDefaults.Vp, "peak frequency in GHz")
	f.Float64Var(&fvp, "fvp", semDefaults.Fvp, "peak flux density in mJy")
	f.Float64Var(&p, "p", semDefaults.P, "electron energy index")
	f.StringVar(&jsonPath, "json", "", "write the analysis to JSON file")
	src.register(f, d.SEM)
	return cmd
}

func printAnalysis(a sem.Analysis) {
	fmt.Printf("Assuming %s geometry at t = %s d\n", a.Geometry, fmtSig(a.TimeDays))
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Energy:           %.4e erg\n", a.Energy)
	fmt.Printf("Radius:           %.4e cm\n", a.Radius)
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Ambient density:  %.4e cm^-3\n", a.AmbientDensity)
	fmt.Printf("Magnetic field:   %.4e G\n", a.BField)
	fmt.Printf("Electrons:        %.4e\n", a.ElectronNumber)
	fmt.Printf("Outflow velocity: %.4f c\n", a.OutflowVelocity)
	fmt.Printf("Outflow mass:     %.4e Msun\n", a.OutflowMassSun)
	fmt.Println("--------------------------------------------------")
}
