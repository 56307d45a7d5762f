package render

import (
	"fmt"

	"github.com/san-kum/gompertz/internal/equilibrium"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/odefit"
)

type Style int

const (
	Solid Style = iota
	Dashed
	Markers
)

// Series is one labelled curve or scatter. NaN values break a curve.
type Series struct {
	Label string
	X, Y  []float64
	Style Style
}

// Band is a shaded region between two curves.
type Band struct {
	Label        string
	X            []float64
	Lower, Upper []float64
}

// RefLine is a horizontal reference line.
type RefLine struct {
	Label string
	Y     float64
}

// Figure is a renderer-independent description of one plot.
type Figure struct {
	Name   string
	Title  string
	XLabel string
	YLabel string
	LogY   bool
	Series []Series
	Bands  []Band
	Refs   []RefLine
}

// EquilibriumFigure plots the two sides of the equilibrium condition with the
// equilibria marked.
func EquilibriumFigure(a *equilibrium.Analysis) Figure {
	f := Figure{
		Name:   a.Case + "_equilibrium",
		Title:  fmt.Sprintf("Equilibria, %s case", a.Case),
		XLabel: "x",
		YLabel: "function",
	}
	for _, c := range a.Diagram.Curves {
		f.Series = append(f.Series, Series{Label: c.Label, X: a.Diagram.X, Y: c.Y})
	}
	if len(a.Diagram.Curves) > 0 {
		for _, p := range a.Points {
			y := interpolate(a.Diagram.X, a.Diagram.Curves[0].Y, p.X)
			f.Series = append(f.Series, Series{
				Label: fmt.Sprintf("equilibrium point %.3f", p.X),
				X:     []float64{p.X}, Y: []float64{y}, Style: Markers,
			})
		}
	}
	return f
}

// FamilyFigure plots a line family against -ln(x).
func FamilyFigure(d equilibrium.Diagram) Figure {
	f := Figure{Name: "exponential_family", Title: "bx + c against -ln(x)", XLabel: "x", YLabel: "function"}
	for _, c := range d.Curves {
		f.Series = append(f.Series, Series{Label: c.Label, X: d.X, Y: c.Y})
	}
	return f
}

// TrajectoryFigure plots the case's ODE solutions with the equilibria as
// reference lines.
func TrajectoryFigure(a *equilibrium.Analysis) Figure {
	f := Figure{
		Name:   a.Case + "_trajectories",
		Title:  fmt.Sprintf("Gompertz trajectories, %s case", a.Case),
		XLabel: "time, t",
		YLabel: "tumor size, x",
	}
	for i, p := range a.Points {
		f.Refs = append(f.Refs, RefLine{Label: fmt.Sprintf("equilibrium %d", i+1), Y: p.X})
	}
	for _, tr := range a.Trajectories {
		f.Series = append(f.Series, Series{Label: fmt.Sprintf("a = %g", tr.Rate), X: a.Times, Y: tr.X})
	}
	return f
}

// DataFigure plots a specimen's raw measurements.
func DataFigure(s growth.Series) Figure {
	return Figure{
		Name:   s.Name + "_data",
		Title:  "Animal " + s.Name,
		XLabel: "Time (days)",
		YLabel: "Volume (mm^3)",
		Series: []Series{{Label: "Animal " + s.Name, X: s.Times(), Y: s.Volumes(), Style: Markers}},
	}
}

// RatesFigure plots per-capita growth rate against volume.
func RatesFigure(name string, r growth.RateSamples) Figure {
	return Figure{
		Name:   name + "_rates",
		Title:  "Per-capita growth rate, " + name,
		XLabel: "Volume (x)",
		YLabel: "1/x dx/dt",
		Series: []Series{{Label: "finite differences", X: r.Volumes, Y: r.Rates, Style: Markers}},
	}
}

// FitFigure overlays a fit and its confidence band on the observations.
func FitFigure(name, xlabel, ylabel string, res *growth.FitResult) Figure {
	f := Figure{
		Name:   name + "_" + res.Model,
		Title:  fmt.Sprintf("%s fit, %s", res.Model, name),
		XLabel: xlabel,
		YLabel: ylabel,
	}
	if len(res.BandLower) == len(res.X) && len(res.X) > 0 {
		f.Bands = append(f.Bands, Band{Label: fmt.Sprintf("%.0f%% band", levelOf(res)*100), X: res.X, Lower: res.BandLower, Upper: res.BandUpper})
	}
	f.Series = append(f.Series, Series{Label: "Exp data", X: res.X, Y: res.Observed, Style: Markers})
	if len(res.CurveX) > 0 {
		f.Series = append(f.Series, Series{Label: "Fit", X: res.CurveX, Y: res.CurveY})
	} else {
		f.Series = append(f.Series, Series{Label: "Fit", X: res.X, Y: res.Fitted})
	}
	return f
}

// GradNormFigure plots the gradient norm per Newton iteration against the
// tolerance.
func GradNormFigure(name string, res *growth.FitResult, tol float64) Figure {
	it := make([]float64, len(res.GradNorms))
	for i := range it {
		it[i] = float64(i)
	}
	return Figure{
		Name:   name + "_gradnorm",
		Title:  "Newton convergence, " + name,
		XLabel: "Iterations",
		YLabel: "2-norm of grad",
		LogY:   true,
		Series: []Series{{Label: "||grad S||", X: it, Y: res.GradNorms}},
		Refs:   []RefLine{{Label: "Tolerance level", Y: tol}},
	}
}

// GrowthFigure compares the ODE implied by a rate fit with the raw series.
func GrowthFigure(s growth.Series, p growth.ParameterVector, traj []float64) Figure {
	return Figure{
		Name:   s.Name + "_newton_growth",
		Title:  "Growth implied by the rate fit, " + s.Name,
		XLabel: "time, t",
		YLabel: "tumor size, x",
		Series: []Series{
			{Label: p.String(), X: s.Times(), Y: traj},
			{Label: "Animal " + s.Name, X: s.Times(), Y: s.Volumes(), Style: Markers},
		},
	}
}

// ComparisonFigure overlays both models on one scale, labelled with AIC.
func ComparisonFigure(name string, c odefit.Comparison) Figure {
	ylabel := "Tumor size, x"
	if c.Scale != "raw" {
		ylabel = "Transformed tumor size"
	}
	f := Figure{
		Name:   fmt.Sprintf("%s_compare_%s", name, c.Scale),
		Title:  fmt.Sprintf("Model comparison (%s), %s", c.Scale, name),
		XLabel: "Time, t",
		YLabel: ylabel,
	}
	f.Series = append(f.Series, Series{Label: "data", X: c.Implicit.X, Y: c.Implicit.Observed, Style: Markers})
	for _, r := range []*growth.FitResult{c.Implicit, c.Explicit} {
		f.Series = append(f.Series, Series{
			Label: fmt.Sprintf("%s (AIC: %.3f)", r.Model, r.Stats.AIC),
			X:     r.CurveX,
			Y:     r.CurveY,
		})
	}
	return f
}

func levelOf(res *growth.FitResult) float64 {
	if len(res.Stats.Intervals) > 0 {
		return res.Stats.Intervals[0].Level
	}
	return 0.95
}

func interpolate(xs, ys []float64, x float64) float64 {
	for i := 0; i+1 < len(xs); i++ {
		if xs[i] <= x && x <= xs[i+1] {
			w := (x - xs[i]) / (xs[i+1] - xs[i])
			return ys[i] + w*(ys[i+1]-ys[i])
		}
	}
	if len(xs) > 0 && x < xs[0] {
		return ys[0]
	}
	if len(ys) > 0 {
		return ys[len(ys)-1]
	}
	return 0
}
