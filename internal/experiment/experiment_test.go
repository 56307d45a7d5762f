package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/gompertz/internal/config"
	"github.com/san-kum/gompertz/internal/growth"
)

type countingRecorder struct {
	mu       sync.Mutex
	fits     map[string]int
	failures int
}

func (c *countingRecorder) RecordFit(_ context.Context, _, model string, _ *growth.FitResult, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures++
		return
	}
	if c.fits == nil {
		c.fits = make(map[string]int)
	}
	c.fits[model]++
}

func (c *countingRecorder) Close(context.Context) error { return nil }

// writeSpecimen writes a series whose forward-difference rates follow
// -a(ln x + b x) exactly.
func writeSpecimen(t *testing.T, dir, name string, x0 float64) {
	t.Helper()
	const a, b = 0.3, 0.5
	var sb strings.Builder
	x := x0
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "%d,%.17g\n", i, x)
		x *= 1 - a*(math.Log(x)+b*x)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".csv"), []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeSpecimen(t, dir, "A", 0.1)
	writeSpecimen(t, dir, "B", 0.12)

	cfg := config.DefaultConfig()
	cfg.Data = config.DataConfig{
		Dir: dir,
		Specimens: []config.SpecimenConfig{
			{Name: "A", File: "A.csv"},
			{Name: "B", File: "B.csv"},
		},
	}
	cfg.Newton.Guess = []float64{0.301, 0.501}
	cfg.Newton.IncludeSentinel = false
	cfg.ODEFit.Implicit = []float64{0.3, 0.5}
	cfg.ODEFit.ImplicitLog = []float64{0.3, 0.5}
	cfg.ODEFit.Explicit = []float64{0.3}
	cfg.ODEFit.ExplicitLog = []float64{0.3}
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	want := []string{"explicit", "explicit-log10", "implicit", "implicit-log10"}
	got := r.ListModels()
	if len(got) != len(want) {
		t.Fatalf("models = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("models[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for _, name := range []string{"euler", "rk4", "rk45"} {
		a, err := r.GetIntegrator(name)
		if err != nil {
			t.Fatalf("integrator %s: %v", name, err)
		}
		b, _ := r.GetIntegrator(name)
		if a == b {
			t.Errorf("integrator %s should be fresh on every call", name)
		}
	}

	if _, err := r.GetIntegrator("leapfrog"); err == nil {
		t.Error("expected an error for an unknown integrator")
	}
	if _, err := r.GetModel("logistic"); err == nil {
		t.Error("expected an error for an unknown model")
	}
}

func TestNewRejectsUnknownIntegrator(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ODEFit.Integrator = "leapfrog"
	if _, err := New(cfg, nil); err == nil {
		t.Error("expected an error")
	}
}

func TestSolverFollowsIntegrator(t *testing.T) {
	cfg := config.DefaultConfig()
	r, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Solver()
	if err != nil {
		t.Fatal(err)
	}
	if s.Config.Adaptive || s.Config.Dt != cfg.ODEFit.Dt {
		t.Errorf("rk4 solver config = %+v", s.Config)
	}

	cfg.ODEFit.Integrator = "rk45"
	s, err = r.Solver()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Config.Adaptive {
		t.Error("rk45 should step adaptively")
	}
}

func TestRunnerNewton(t *testing.T) {
	r, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Series("A")
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Newton(context.Background(), s)
	if err != nil {
		t.Fatalf("newton: %v", err)
	}
	if !res.Converged {
		t.Error("expected convergence on exact rates")
	}
	a, _ := res.Params.Get("a")
	b, _ := res.Params.Get("b")
	if math.Abs(a-0.3) > 1e-6 || math.Abs(b-0.5) > 1e-6 {
		t.Errorf("params = %v", res.Params)
	}

	curve, err := r.GrowthCurve(s, res)
	if err != nil {
		t.Fatalf("growth curve: %v", err)
	}
	if len(curve) != s.Len() || curve[0] != s.First() {
		t.Errorf("growth curve = %v", curve)
	}
}

func TestRunnerNewtonGridStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Newton.Guess = []float64{5, 5}
	cfg.Newton.Search = config.SearchConfig{
		Enabled: true,
		A:       config.Grid{Start: 0.1, Stop: 0.5, Points: 5},
		B:       config.Grid{Start: 0, Stop: 1, Points: 5},
	}
	r, _ := New(cfg, nil)
	s, _ := r.Series("A")
	res, err := r.Newton(context.Background(), s)
	if err != nil {
		t.Fatalf("newton: %v", err)
	}
	a, _ := res.Params.Get("a")
	b, _ := res.Params.Get("b")
	if math.Abs(a-0.3) > 1e-6 || math.Abs(b-0.5) > 1e-6 {
		t.Errorf("params = %v", res.Params)
	}
}

func TestRunnerRatesSentinel(t *testing.T) {
	cfg := testConfig(t)
	r, _ := New(cfg, nil)
	s, _ := r.Series("A")

	rs, err := r.Rates(s)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != s.Len()-1 {
		t.Errorf("without sentinel expected %d samples, got %d", s.Len()-1, rs.Len())
	}

	cfg.Newton.IncludeSentinel = true
	rs, _ = r.Rates(s)
	if rs.Len() != s.Len() || rs.Rates[rs.Len()-1] != 0 {
		t.Errorf("sentinel not included: %+v", rs)
	}
}

func TestRunnerFitExplicit(t *testing.T) {
	r, _ := New(testConfig(t), nil)
	s, _ := r.Series("A")
	res, err := r.Fit(context.Background(), s, "explicit")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if res.Model != "explicit" || res.Params.Len() != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Stats.RSquared < 0.9 {
		t.Errorf("R^2 = %g", res.Stats.RSquared)
	}
	if _, err := r.Fit(context.Background(), s, "logistic"); err == nil {
		t.Error("expected an error for an unknown model")
	}
}

func TestRunnerEquilibrium(t *testing.T) {
	r, _ := New(config.DefaultConfig(), nil)
	a, err := r.Equilibrium("linear")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Points) != 1 || math.Abs(a.Points[0].X-0.125) > 1e-12 {
		t.Errorf("points = %+v", a.Points)
	}
	if len(a.Trajectories) != 3 {
		t.Errorf("expected one trajectory per rate, got %d", len(a.Trajectories))
	}
	if _, err := r.Equilibrium("cubic"); err == nil {
		t.Error("expected an error for an unknown case")
	}

	d := r.Family()
	if len(d.Curves) != 4 {
		t.Errorf("family should have three lines and -ln(x), got %d curves", len(d.Curves))
	}
}

func TestBatchRun(t *testing.T) {
	r, _ := New(testConfig(t), nil)
	b := &Batch{Runner: r, Workers: 2}
	reports, err := b.Run(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for i, name := range []string{"A", "B"} {
		rep := reports[i]
		if rep.Specimen != name {
			t.Errorf("report %d is for %s, want %s", i, rep.Specimen, name)
		}
		if len(rep.Comparisons) != 2 {
			t.Errorf("%s: expected raw and log10 comparisons", name)
		}
		if len(rep.Fits()) != 5 {
			t.Errorf("%s: expected 5 fits, got %d", name, len(rep.Fits()))
		}
	}
}

func TestBatchRunErrors(t *testing.T) {
	r, _ := New(testConfig(t), nil)
	b := &Batch{Runner: r}

	if _, err := b.Run(context.Background(), []string{"A", "missing"}); err == nil {
		t.Error("expected an error for an unknown specimen")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Run(ctx, []string{"A"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBatchRecordsMetrics(t *testing.T) {
	r, _ := New(testConfig(t), nil)
	rec := &countingRecorder{}
	r.Metrics = rec
	b := &Batch{Runner: r, Workers: 2}
	if _, err := b.Run(context.Background(), []string{"A", "B"}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, model := range []string{"newton-rate", "implicit", "explicit", "implicit-log10", "explicit-log10"} {
		if rec.fits[model] != 2 {
			t.Errorf("%s recorded %d times, want 2", model, rec.fits[model])
		}
	}
	if rec.failures != 0 {
		t.Errorf("unexpected failures: %d", rec.failures)
	}
}
