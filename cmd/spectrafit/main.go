package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	noColor  bool
	pretty   bool
)

func main() {
	root := &cobra.Command{
		Use:   "spectrafit",
		Short: "Radio spectrum peak fitting for transient outflows",
		Long: `The spectrafit tool fits a smoothly broken power law to a radio
spectrum with an affine-invariant ensemble sampler and reports the spectral
peak (Fp, vp) with the posterior of Fvb, vb and p. The fitted peak can be fed
into an equipartition analysis to estimate the outflow radius, energy,
ambient density and magnetic field.

* GitHub: https://github.com/ja7ad/spectrafit

Examples:
  spectrafit fit --config run.yaml --json out/result.json --html out/report.html
  spectrafit fit --freq 2.25,3.5,5.04,6.13 --flux 32,28,47,51 --err-low 3,3,2,2 --break 5 --seed 1
  spectrafit sem --vp 4 --fvp 1.14 --p 3 --dl 90 --t 246
  spectrafit breaks`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(os.Stderr, logLevel, noColor)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")
	root.PersistentFlags().BoolVar(&pretty, "pretty", true, "format output as a table instead of CSV-like lines")

	root.AddCommand(newFitCmd(), newSEMCmd(), newBreaksCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// newLogger returns a tint logger on w. Colors are off when w is not a
// terminal.
func newLogger(w *os.File, level string, noColor bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	tty := isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
		NoColor:    noColor || !tty,
	})), nil
}
