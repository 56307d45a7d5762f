package render

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/gompertz/internal/equilibrium"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/odefit"
	"gonum.org/v1/plot/vg"
)

func sampleFit() *growth.FitResult {
	x := []float64{0, 1, 2, 3, 4}
	return &growth.FitResult{
		Model:     "explicit",
		Params:    growth.NewParameterVector([]string{"r"}, []float64{0.15}),
		X:         x,
		Observed:  []float64{1, 2, 3, 3.5, 3.8},
		Fitted:    []float64{1.1, 1.9, 2.9, 3.6, 3.8},
		BandLower: []float64{0.9, 1.7, 2.7, 3.4, 3.6},
		BandUpper: []float64{1.3, 2.1, 3.1, 3.8, 4.0},
		CurveX:    []float64{0, 2, 4},
		CurveY:    []float64{1.1, 2.9, 3.8},
		GradNorms: []float64{10, 1, 1e-3, 1e-8},
		Stats: growth.Stats{
			N: 5, SSE: 0.04, AIC: math.Inf(-1),
			Intervals: []growth.Interval{{Name: "r", Lower: 0.1, Upper: 0.2, Level: 0.95}},
		},
	}
}

func TestSegmentsSplitAtNaN(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	y := []float64{1, 2, math.NaN(), 4, math.Inf(1), 6}
	segs := segments(x, y, false)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if len(segs[0]) != 2 || len(segs[1]) != 1 || len(segs[2]) != 1 {
		t.Errorf("unexpected segment lengths %d %d %d", len(segs[0]), len(segs[1]), len(segs[2]))
	}

	logSegs := segments([]float64{0, 1, 2}, []float64{-1, 1, 2}, true)
	if len(logSegs) != 1 || len(logSegs[0]) != 2 {
		t.Errorf("non-positive values should be dropped on a log axis, got %v", logSegs)
	}
}

func TestFitFigure(t *testing.T) {
	f := FitFigure("A", "Time", "Volume", sampleFit())
	if f.Name != "A_explicit" {
		t.Errorf("name = %q", f.Name)
	}
	if len(f.Bands) != 1 {
		t.Fatalf("expected a confidence band")
	}
	if len(f.Series) != 2 || f.Series[0].Style != Markers {
		t.Fatalf("expected data markers then the fit curve, got %+v", f.Series)
	}
	if len(f.Series[1].X) != 3 {
		t.Errorf("fit curve should use the dense curve samples")
	}
}

func TestGradNormFigure(t *testing.T) {
	f := GradNormFigure("A", sampleFit(), 1e-15)
	if !f.LogY {
		t.Error("gradient norms should use a log axis")
	}
	if len(f.Refs) != 1 || f.Refs[0].Y != 1e-15 {
		t.Errorf("tolerance line missing: %+v", f.Refs)
	}
	if got := f.Series[0].X[3]; got != 3 {
		t.Errorf("iteration axis = %v", f.Series[0].X)
	}
}

func TestEquilibriumFigure(t *testing.T) {
	a, err := equilibrium.Analyze(equilibrium.Linear{B: 0.2, C: 0.1}, equilibrium.Settings{
		X0:    0.5,
		Rates: []float64{0.5},
		Times: []float64{0, 1, 2},
		Grid:  []float64{0, 0.5, 1},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	f := EquilibriumFigure(a)
	markers := 0
	for _, s := range f.Series {
		if s.Style == Markers {
			markers++
		}
	}
	if markers != len(a.Points) {
		t.Errorf("expected %d equilibrium markers, got %d", len(a.Points), markers)
	}
	tf := TrajectoryFigure(a)
	if len(tf.Refs) != len(a.Points) || len(tf.Series) != 1 {
		t.Errorf("trajectory figure = %+v", tf)
	}
}

func TestComparisonFigureLabels(t *testing.T) {
	imp := sampleFit()
	imp.Model = "implicit"
	imp.Stats.AIC = -12.5
	exp := sampleFit()
	exp.Stats.AIC = -3
	f := ComparisonFigure("A", odefit.Comparison{Scale: "raw", Implicit: imp, Explicit: exp})
	if len(f.Series) != 3 {
		t.Fatalf("expected data and two fits, got %d series", len(f.Series))
	}
	if !strings.Contains(f.Series[1].Label, "implicit") || !strings.Contains(f.Series[1].Label, "-12.500") {
		t.Errorf("implicit label = %q", f.Series[1].Label)
	}
	if !strings.Contains(f.Series[2].Label, "explicit") {
		t.Errorf("explicit label = %q", f.Series[2].Label)
	}
}

func TestSavePNG(t *testing.T) {
	dir := t.TempDir()
	f := FitFigure("A", "Time", "Volume", sampleFit())
	f.Series = append(f.Series, Series{Label: "gap", X: []float64{0, 1, 2}, Y: []float64{1, math.NaN(), 2}, Style: Dashed})
	f.Refs = append(f.Refs, RefLine{Label: "K", Y: 4})

	path, err := SavePNG(f, dir, 4*vg.Inch, 3*vg.Inch)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty png")
	}
}

func TestSaveFormats(t *testing.T) {
	dir := t.TempDir()
	f := FitFigure("B", "Time", "Volume", sampleFit())
	for _, format := range []string{"svg", "pdf"} {
		path, err := Save(f, dir, format, 4*vg.Inch, 3*vg.Inch)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !strings.HasSuffix(path, "."+format) {
			t.Errorf("path %s lacks .%s", path, format)
		}
	}
	if _, err := Save(f, dir, "bmp", 4*vg.Inch, 3*vg.Inch); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestConsole(t *testing.T) {
	out := Console(FitFigure("A", "Time", "Volume", sampleFit()), 40, 8)
	if !strings.Contains(out, "Exp data") {
		t.Errorf("chart legend missing: %s", out)
	}
	empty := Console(Figure{Title: "nothing"}, 40, 8)
	if !strings.Contains(empty, "no data") {
		t.Errorf("empty chart = %q", empty)
	}
}

func TestReports(t *testing.T) {
	r := FitReport("Specimen A", sampleFit())
	for _, want := range []string{"explicit", "95% CI for r", "-Inf"} {
		if !strings.Contains(r, want) {
			t.Errorf("fit report missing %q", want)
		}
	}
	imp := sampleFit()
	imp.Model = "implicit"
	imp.Stats.AIC = -5
	exp := sampleFit()
	exp.Stats.AIC = 2
	c := ComparisonReport("A", []odefit.Comparison{{Scale: "raw", Implicit: imp, Explicit: exp}})
	if !strings.Contains(c, "preferred: implicit") {
		t.Errorf("comparison report = %s", c)
	}
}

func TestQuality(t *testing.T) {
	tests := []struct {
		r2   float64
		want lipgloss.Style
	}{
		{1, Good},
		{0.9, Good},
		{0.7, Warn},
		{0.1, Bad},
		{math.NaN(), Bad},
	}
	for _, tt := range tests {
		got := Quality(tt.r2)
		if got.GetForeground() != tt.want.GetForeground() {
			t.Errorf("Quality(%g) has colour %v, want %v", tt.r2, got.GetForeground(), tt.want.GetForeground())
		}
	}
}
