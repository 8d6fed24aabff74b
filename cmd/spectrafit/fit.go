package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ja7ad/spectrafit/pkg/config"
	"github.com/ja7ad/spectrafit/pkg/fit"
	"github.com/ja7ad/spectrafit/pkg/sem"
)

type fitOpts struct {
	configPath string

	// observations
	freq      []float64
	flux      []float64
	errLow    []float64
	errUp     []float64
	quiescent []float64

	// sampler
	brk     int
	walkers int
	steps   int
	burnin  int
	thin    int
	initial []float64
	stretch float64
	seed    uint64

	// equipartition
	sem bool
	src semOpts

	// outputs
	csvPath  string
	jsonPath string
	htmlPath string
}

func newFitCmd() *cobra.Command {
	var o fitOpts
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a smoothly broken power law and locate the spectral peak",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := o.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return runFit(cmd.Context(), run)
		},
	}
	o.register(cmd.Flags())
	return cmd
}

func (o *fitOpts) register(f *pflag.FlagSet) {
	d := config.Default()

	f.StringVarP(&o.configPath, "config", "c", "", "run file (YAML or JSON)")

	f.Float64SliceVar(&o.freq, "freq", nil, "observing frequencies in GHz")
	f.Float64SliceVar(&o.flux, "flux", nil, "flux densities in mJy")
	f.Float64SliceVar(&o.errLow, "err-low", nil, "lower flux density errors in mJy")
	f.Float64SliceVar(&o.errUp, "err-up", nil, "upper flux density errors in mJy (default: --err-low)")
	f.Float64SliceVar(&o.quiescent, "quiescent", nil, "quiescent host flux densities in mJy to subtract")

	f.IntVarP(&o.brk, "break", "b", d.Fit.Break, "spectral break 1..11 (see: spectrafit breaks)")
	f.IntVarP(&o.walkers, "walkers", "w", d.Fit.Walkers, "number of walkers")
	f.IntVarP(&o.steps, "steps", "n", d.Fit.Steps, "sampler steps per walker")
	f.IntVar(&o.burnin, "burnin", d.Fit.Burnin, "steps discarded before extraction")
	f.IntVar(&o.thin, "thin", d.Fit.Thin, "keep every n-th step after burn-in")
	f.Float64SliceVar(&o.initial, "initial", d.Fit.Initial, "initial guess Fvb,vb,p")
	f.Float64Var(&o.stretch, "stretch", d.Fit.Stretch, "stretch-move scale a (> 1)")
	f.Uint64Var(&o.seed, "seed", 0, "random seed (0 = random)")

	f.BoolVar(&o.sem, "sem", false, "run the equipartition analysis on the fitted peak")
	o.src.register(f, d.SEM)

	f.StringVar(&o.csvPath, "csv", "", "write flattened posterior samples to CSV file")
	f.StringVar(&o.jsonPath, "json", "", "write the result to JSON file")
	f.StringVar(&o.htmlPath, "html", "", "write a report to HTML file")
}

// resolve layers changed flags over the run file and the environment.
func (o *fitOpts) resolve(fs *pflag.FlagSet) (config.Run, error) {
	run, err := config.Read(o.configPath)
	if err != nil {
		return run, err
	}

	obs := &run.Observations
	setIf(fs, "freq", &obs.Frequency, o.freq)
	setIf(fs, "flux", &obs.Flux, o.flux)
	setIf(fs, "err-low", &obs.ErrLow, o.errLow)
	setIf(fs, "err-up", &obs.ErrUp, o.errUp)
	setIf(fs, "quiescent", &obs.Quiescent, o.quiescent)

	ft := &run.Fit
	setIf(fs, "break", &ft.Break, o.brk)
	setIf(fs, "walkers", &ft.Walkers, o.walkers)
	setIf(fs, "steps", &ft.Steps, o.steps)
	setIf(fs, "burnin", &ft.Burnin, o.burnin)
	setIf(fs, "thin", &ft.Thin, o.thin)
	setIf(fs, "initial", &ft.Initial, o.initial)
	setIf(fs, "stretch", &ft.Stretch, o.stretch)
	setIf(fs, "seed", &ft.Seed, o.seed)

	setIf(fs, "sem", &run.SEM.Enabled, o.sem)
	o.src.apply(fs, &run.SEM)

	setIf(fs, "csv", &run.Output.CSV, o.csvPath)
	setIf(fs, "json", &run.Output.JSON, o.jsonPath)
	setIf(fs, "html", &run.Output.HTML, o.htmlPath)

	if err := run.Validate(); err != nil {
		return run, err
	}
	return run, nil
}

func setIf[T any](fs *pflag.FlagSet, name string, dst *T, v T) {
	if fs.Changed(name) {
		*dst = v
	}
}

func runFit(ctx context.Context, run config.Run) error {
	logger := slog.Default()
	started := time.Now()

	cfg := run.FitConfig(logger)
	fitter, err := fit.New(run.FitObservations(), &cfg)
	if err != nil {
		return err
	}

	fmt.Printf(_console, run.Name, fitter.Break(), len(run.Observations.Frequency),
		cfg.Walkers, cfg.Steps, started.Format("2006-01-02 15:04:05"))

	res, sampler, err := fitter.Run(ctx)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	var analysis *sem.Analysis
	if run.SEM.Enabled {
		analysis = analyzePeak(run, res, logger)
	}

	rep := report{
		RunID:        uuid.NewString(),
		Name:         run.Name,
		CreatedAt:    started,
		Elapsed:      time.Since(started).Round(time.Millisecond).String(),
		Observations: run.FitObservations(),
		Config:       reportConfig(fitter.Config()),
		Result:       res,
		SEM:          analysis,
	}

	printResult(rep)
	if analysis != nil {
		printAnalysis(*analysis)
	}

	cfgUsed := fitter.Config()
	if p := run.Output.CSV; p != "" {
		if err := writeSamplesCSV(p, sampler, cfgUsed.BurninSteps(), cfgUsed.Thin); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		logger.Info("wrote samples", "path", p)
	}
	if p := run.Output.JSON; p != "" {
		if err := writeJSON(p, rep); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		logger.Info("wrote result", "path", p, "run_id", rep.RunID)
	}
	if p := run.Output.HTML; p != "" {
		if err := writeHTML(p, rep); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
		logger.Info("wrote report", "path", p)
	}
	return nil
}

// analyzePeak runs the equipartition analysis on the fitted peak. A peak the
// analysis cannot use is logged and skipped so the fit is still reported.
func analyzePeak(run config.Run, res fit.Result, logger *slog.Logger) *sem.Analysis {
	m, err := sem.New(ptr(run.SEMConfig(res.Vp.Value, res.Fp.Value, res.P.Value, logger)))
	if err != nil {
		logger.Warn("skipping equipartition analysis", "err", err, "p", res.P.Value)
		return nil
	}
	return ptr(m.Analyze())
}

func ptr[T any](v T) *T { return &v }

const _console = `spectrafit - Radio Spectrum Peak Fitting

       Run: %s
       Model: %s
       Points: %d
       Ensemble: %d walkers x %d steps

Fit as of %s:

`
