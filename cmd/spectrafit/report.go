package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/ja7ad/spectrafit/pkg/ensemble"
	"github.com/ja7ad/spectrafit/pkg/fit"
	"github.com/ja7ad/spectrafit/pkg/posterior"
	"github.com/ja7ad/spectrafit/pkg/sem"
	"github.com/ja7ad/spectrafit/pkg/types"
	"github.com/ja7ad/spectrafit/pkg/util"
)

type report struct {
	RunID        string           `json:"run_id"`
	Name         string           `json:"name"`
	CreatedAt    time.Time        `json:"created_at"`
	Elapsed      string           `json:"elapsed"`
	Observations fit.Observations `json:"observations"`
	Config       runConfig        `json:"config"`
	Result       fit.Result       `json:"result"`
	SEM          *sem.Analysis    `json:"sem,omitempty"`
}

type runConfig struct {
	Break   int        `json:"break"`
	Walkers int        `json:"walkers"`
	Steps   int        `json:"steps"`
	Burnin  int        `json:"burnin"`
	Thin    int        `json:"thin"`
	Initial [3]float64 `json:"initial"`
	Stretch float64    `json:"stretch"`
	Seed    uint64     `json:"seed"`
	Grid    fit.Grid   `json:"grid"`
}

func reportConfig(c fit.Config) runConfig {
	return runConfig{
		Break:   c.Break,
		Walkers: c.Walkers,
		Steps:   c.Steps,
		Burnin:  c.BurninSteps(),
		Thin:    c.Thin,
		Initial: c.Initial,
		Stretch: c.Stretch,
		Seed:    c.Seed,
		Grid:    c.Grid,
	}
}

// fmtSig prints x with 4 significant digits.
func fmtSig(x float64) string { return fmt.Sprintf("%.4g", x) }

func printResult(rep report) {
	res := rep.Result

	if res.Reliable {
		fmt.Printf("The autocorrelation time is %v steps; run the chains for at least 10x that.\n", fmtTau(res.Tau))
	} else {
		fmt.Printf("The autocorrelation time could not be estimated reliably (estimate %v); use with caution.\n",
			fmtTau(res.TauRaw))
	}
	fmt.Println()

	if pretty {
		tw := newTable()
		fmt.Fprintln(tw, "PARAM\tMEDIAN\t-\t+")
		fmt.Fprintln(tw, "-----\t------\t-\t-")
		for i, e := range res.Params() {
			fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\n", posterior.Labels[i], e.Value, e.Lower, e.Upper)
		}
		tw.Flush()
	} else {
		fmt.Println("# param, median, lower, upper")
		for i, e := range res.Params() {
			fmt.Printf("%s, %s, %s, %s\n", posterior.Labels[i],
				util.FmtFloat(e.Value), util.FmtFloat(e.Lower), util.FmtFloat(e.Upper))
		}
	}

	fmt.Println()
	fmt.Printf("peak (over %d samples, acceptance %.2f):\n", res.Samples, res.Acceptance)
	fmt.Printf("- Fp: %.3f ± %.3f mJy (%s)\n", res.Fp.Value, res.Fp.Sigma(), types.Flux(res.Fp.Value).Humanized())
	fmt.Printf("- vp: %.3f ± %.3f GHz (%s)\n", res.Vp.Value, res.Vp.Sigma(), types.Frequency(res.Vp.Value).Humanized())
	fmt.Printf("- p:  %.3f +%.3f -%.3f\n", res.P.Value, res.P.Upper, res.P.Lower)
	fmt.Println()
}

func fmtTau(tau fit.Autocorr) []string {
	out := make([]string, len(tau))
	for i, t := range tau {
		out[i] = fmt.Sprintf("%.1f", t)
	}
	return out
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// writeSamplesCSV writes chain[burnin::thin] flattened over walkers with the
// log-posterior of each sample.
func writeSamplesCSV(path string, s *ensemble.Sampler, burnin, thin int) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"fvb_mjy", "vb_ghz", "p", "log_f", "log_prob"}); err != nil {
		return err
	}
	rows := s.Chain(burnin, thin).Flat()
	lps := s.LogProb(burnin, thin)
	rec := make([]string, posterior.NDim+1)
	for i, x := range rows {
		for d, v := range x {
			rec[d] = util.FmtFloat(v)
		}
		rec[posterior.NDim] = util.FmtFloat(lps[i/s.Walkers()][i%s.Walkers()])
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type curveRow struct {
	Frequency, Flux, FluxUp, FluxLow float64
	Peak                             bool
}

type obsRow struct {
	Frequency, Flux, ErrLow, ErrUp float64
}

func writeHTML(path string, rep report) error {
	type view struct {
		report
		Labels [posterior.NDim]string
		Params [posterior.NDim]fit.Estimate
		Obs    []obsRow
		Curve  []curveRow
	}

	v := view{report: rep, Labels: posterior.Labels, Params: rep.Result.Params()}
	o := rep.Observations
	emission := o.Emission()
	for i := range o.Frequency {
		v.Obs = append(v.Obs, obsRow{o.Frequency[i], emission[i], o.ErrLow[i], o.ErrUp[i]})
	}
	c := rep.Result.Curve
	for i := range c.Frequency {
		v.Curve = append(v.Curve, curveRow{c.Frequency[i], c.Flux[i], c.FluxUp[i], c.FluxLow[i], i == c.PeakIndex})
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		return err
	}
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var tpl = template.Must(template.New("rep").Funcs(template.FuncMap{
	"flux": func(x float64) string { return types.Flux(x).Humanized() },
	"freq": func(x float64) string { return types.Frequency(x).Humanized() },
}).Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>Spectrafit Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px;margin-bottom:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
ul{margin:6px 0 14px;padding-left:20px}
.small{color:#555}
.badge{display:inline-block;background:#eef;border:1px solid #ccd;padding:2px 6px;border-radius:6px;margin-right:6px;}
tr.peak{background:#fff6dd}
</style>

<h1><a href="https://github.com/ja7ad/spectrafit" target="_blank" rel="noopener noreferrer" style="color:inherit;text-decoration:none;">Spectrafit Report</a></h1>

<p class="small">
<span class="badge">{{.Name}}</span>
Run {{.RunID}} &nbsp;|&nbsp;
{{.CreatedAt.Format "2006-01-02 15:04:05"}} &nbsp;|&nbsp;
elapsed {{.Elapsed}}
</p>

<h2>Summary</h2>
<ul>
<li>Model: break {{.Config.Break}}, {{.Config.Walkers}} walkers x {{.Config.Steps}} steps, burn-in {{.Config.Burnin}}, thin {{.Config.Thin}}</li>
<li>Samples: {{.Result.Samples}}, acceptance {{printf "%.3f" .Result.Acceptance}}</li>
<li>Peak flux Fp: {{flux .Result.Fp.Value}} ± {{printf "%.3f" .Result.Fp.Lower}} mJy</li>
<li>Peak frequency vp: {{freq .Result.Vp.Value}} ± {{printf "%.3f" .Result.Vp.Lower}} GHz</li>
<li>Autocorrelation: {{if .Result.Reliable}}reliable{{else}}unreliable, use with caution{{end}}</li>
</ul>

<h2>Parameters</h2>
<table>
<thead><tr><th>param</th><th>median</th><th>-</th><th>+</th><th>mean</th><th>std</th></tr></thead>
<tbody>
{{range $i, $e := .Params}}
<tr>
<td>{{index $.Labels $i}}</td>
<td>{{printf "%.4f" $e.Value}}</td>
<td>{{printf "%.4f" $e.Lower}}</td>
<td>{{printf "%.4f" $e.Upper}}</td>
<td>{{printf "%.4f" (index $.Result.Mean $i)}}</td>
<td>{{printf "%.4f" (index $.Result.Std $i)}}</td>
</tr>
{{end}}
</tbody>
</table>

{{if .SEM}}
<h2>Equipartition ({{.SEM.Geometry}})</h2>
<ul>
<li>Energy: {{printf "%.4e" .SEM.Energy}} erg</li>
<li>Radius: {{printf "%.4e" .SEM.Radius}} cm</li>
<li>Ambient density: {{printf "%.4e" .SEM.AmbientDensity}} cm^-3</li>
<li>Magnetic field: {{printf "%.4e" .SEM.BField}} G</li>
<li>Outflow velocity: {{printf "%.4f" .SEM.OutflowVelocity}} c</li>
<li>Outflow mass: {{printf "%.4e" .SEM.OutflowMassSun}} Msun</li>
</ul>
{{end}}

<h2>Observations</h2>
<table>
<thead><tr><th>frequency</th><th>flux (mJy)</th><th>err low</th><th>err up</th></tr></thead>
<tbody>
{{range .Obs}}
<tr><td>{{freq .Frequency}}</td><td>{{printf "%.4f" .Flux}}</td><td>{{printf "%.4f" .ErrLow}}</td><td>{{printf "%.4f" .ErrUp}}</td></tr>
{{end}}
</tbody>
</table>

<h2>Model curve</h2>
<table>
<thead><tr><th>frequency (GHz)</th><th>flux (mJy)</th><th>84th pct</th><th>16th pct</th></tr></thead>
<tbody>
{{range .Curve}}
<tr{{if .Peak}} class="peak"{{end}}><td>{{printf "%.3f" .Frequency}}</td><td>{{printf "%.4f" .Flux}}</td><td>{{printf "%.4f" .FluxUp}}</td><td>{{printf "%.4f" .FluxLow}}</td></tr>
{{end}}
</tbody>
</table>
</html>`))
