package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/spectrafit/pkg/config"
	"github.com/ja7ad/spectrafit/pkg/ensemble"
	"github.com/ja7ad/spectrafit/pkg/fit"
	"github.com/ja7ad/spectrafit/pkg/spectrum"
)

func parseFit(t *testing.T, args ...string) (*fitOpts, *pflag.FlagSet) {
	t.Helper()
	o := &fitOpts{}
	fs := pflag.NewFlagSet("fit", pflag.ContinueOnError)
	o.register(fs)
	require.NoError(t, fs.Parse(args))
	return o, fs
}

func TestFitOpts_FlagsOverrideDefaults(t *testing.T) {
	o, fs := parseFit(t,
		"--freq", "1.4,3,6,9",
		"--flux", "10,30,25,15",
		"--err-low", "1,2,2,1",
		"--break", "6",
		"--walkers", "32",
		"--seed", "5",
		"--geometry", "conical",
	)
	run, err := o.resolve(fs)
	require.NoError(t, err)

	assert.Equal(t, 6, run.Fit.Break)
	assert.Equal(t, 32, run.Fit.Walkers)
	assert.Equal(t, 10000, run.Fit.Steps)
	assert.Equal(t, 150, run.Fit.Burnin)
	assert.Equal(t, uint64(5), run.Fit.Seed)
	assert.Equal(t, 2.0, run.Fit.Stretch)
	assert.Equal(t, "conical", run.SEM.Geometry)
	assert.Equal(t, []float64{1, 2, 2, 1}, run.FitObservations().ErrUp)
}

func TestFitOpts_FlagsOverrideRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
observations:
  frequency: [1, 2, 3]
  flux: [5, 6, 4]
  err_low: [1, 1, 1]
fit:
  break: 8
  steps: 500
`), 0o644))

	o, fs := parseFit(t, "--config", path, "--steps", "900", "--stretch", "1.7")
	run, err := o.resolve(fs)
	require.NoError(t, err)
	assert.Equal(t, 8, run.Fit.Break)
	assert.Equal(t, 900, run.Fit.Steps)
	assert.Equal(t, 1.7, run.Fit.Stretch)
}

func TestFitOpts_Rejects(t *testing.T) {
	cases := map[string][]string{
		"break zero":     {"--freq", "1,2", "--flux", "1,2", "--err-low", "1,1", "--break", "0"},
		"break too big":  {"--freq", "1,2", "--flux", "1,2", "--err-low", "1,1", "--break", "12"},
		"no data":        {},
		"shape mismatch": {"--freq", "1,2,3", "--flux", "1,2", "--err-low", "1,1,1"},
		"stretch at one": {"--freq", "1,2", "--flux", "1,2", "--err-low", "1,1", "--stretch", "1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			o, fs := parseFit(t, args...)
			_, err := o.resolve(fs)
			require.Error(t, err)
		})
	}
}

func testReport(t *testing.T) (report, *ensemble.Sampler) {
	t.Helper()
	freq := []float64{1.4, 2.25, 3.5, 5.04, 6.13, 7.06, 9, 11, 15}
	flux := spectrum.Break(5).Spectrum(nil, freq, 50, 3, 2.5)
	errs := make([]float64, len(freq))
	for i, f := range flux {
		errs[i] = 0.05 * f
	}
	obs := fit.Observations{Frequency: freq, Flux: flux, ErrLow: errs, ErrUp: errs}
	f, err := fit.New(obs, &fit.Config{
		Walkers: 16, Steps: 60, Burnin: fit.Steps(10), Thin: 2,
		Initial: [3]float64{45, 2.8, 2.4}, Seed: 1,
	})
	require.NoError(t, err)
	res, s, err := f.Run(context.Background())
	require.NoError(t, err)
	res.Tau = fit.Autocorr{math.Inf(1), 3, 4, 5}

	return report{
		RunID:        "test",
		Name:         "synthetic",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Observations: obs,
		Config:       reportConfig(f.Config()),
		Result:       res,
	}, s
}

func TestWriteJSON_HandlesInfiniteTau(t *testing.T) {
	rep, _ := testReport(t)
	path := filepath.Join(t.TempDir(), "out", "result.json")
	require.NoError(t, writeJSON(path, rep))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "test", got["run_id"])
	result := got["result"].(map[string]any)
	assert.Equal(t, []any{nil, 3.0, 4.0, 5.0}, result["tau"])
	assert.Equal(t, 5.0, result["break"])
}

func TestWriteSamplesCSV(t *testing.T) {
	rep, s := testReport(t)
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, writeSamplesCSV(path, s, rep.Config.Burnin, rep.Config.Thin))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"fvb_mjy", "vb_ghz", "p", "log_f", "log_prob"}, recs[0])
	// (60-10)/2 steps x 16 walkers
	assert.Len(t, recs, 1+25*16)
	assert.Equal(t, rep.Result.Samples, len(recs)-1)
}

func TestWriteHTML(t *testing.T) {
	rep, _ := testReport(t)
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, writeHTML(path, rep))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(b)
	assert.Contains(t, html, "Spectrafit Report")
	assert.Contains(t, html, "synthetic")
	assert.Contains(t, html, `class="peak"`)
	assert.Equal(t, 1, strings.Count(html, `class="peak"`))
	assert.Contains(t, html, "Observations")
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(os.Stderr, "debug", true)
	require.NoError(t, err)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))

	_, err = newLogger(os.Stderr, "loud", true)
	require.Error(t, err)
}

func TestRunFit_KeepsFitWhenSEMRejectsPeak(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	run := config.Default()
	run.Observations = config.Observations{
		Frequency: []float64{2.25, 3.5, 5.04, 6.13, 7.06, 9, 11},
		Flux:      []float64{32.1, 28.6, 47, 51, 51, 67.6, 61.5},
		ErrLow:    []float64{30, 30, 16, 11, 10, 7.3, 9.1},
		ErrUp:     []float64{1, 1, 16, 11, 10, 7.3, 9.1},
	}
	run.Fit.Walkers = 8
	run.Fit.Steps = 20
	run.Fit.Burnin = 0
	run.Fit.Thin = 1
	run.Fit.Initial = []float64{2.21, 2.68, 1.2}
	run.Fit.Seed = 11
	run.SEM.Enabled = true
	run.Output.JSON = filepath.Join(dir, "result.json")
	run.Output.CSV = filepath.Join(dir, "samples.csv")
	require.NoError(t, run.Validate())

	require.NoError(t, runFit(context.Background(), run))

	b, err := os.ReadFile(run.Output.JSON)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Contains(t, got, "result")
	assert.NotContains(t, got, "sem")
	p := got["result"].(map[string]any)["p"].(map[string]any)["value"].(float64)
	assert.Less(t, p, 2.0)

	_, err = os.Stat(run.Output.CSV)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "skipping equipartition analysis")
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestSEMCmd_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sem.json")
	cmd := newSEMCmd()
	cmd.SetArgs([]string{"--vp", "4", "--fvp", "1.14", "--p", "3", "--json", path})
	require.NoError(t, cmd.Execute())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got semReport
	require.NoError(t, json.Unmarshal(b, &got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, 4.0, got.Vp)
	assert.Equal(t, 3.0, got.P)
	assert.Equal(t, "spherical", string(got.Analysis.Geometry))
	assert.InEpsilon(t, 2.310102057852355e16, got.Analysis.Radius, 1e-9)
	assert.InEpsilon(t, 1.6727370456853008e48, got.Analysis.Energy, 1e-9)
}
