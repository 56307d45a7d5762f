package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gompertz/internal/equilibrium"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/odefit"
)

// FitReport summarises one fit: parameters, intervals and fit statistics.
func FitReport(title string, res *growth.FitResult) string {
	var b strings.Builder
	b.WriteString(Header.Render(title) + "\n")
	b.WriteString(Metric("model", res.Model) + "\n")
	for i, name := range res.Params.Names {
		b.WriteString(Metric(name, fmt.Sprintf("%.6g", res.Params.Values[i])) + "\n")
	}
	for _, iv := range res.Stats.Intervals {
		b.WriteString(Subtle.Render(iv.String()) + "\n")
	}
	b.WriteString(Metric("observations", fmt.Sprintf("%d", res.Stats.N)) + "\n")
	b.WriteString(Metric("SSE", fmt.Sprintf("%.6g", res.Stats.SSE)) + "\n")
	b.WriteString(Metric("RMSE", fmt.Sprintf("%.6g", res.Stats.RMSE)) + "\n")
	b.WriteString(Metric("AIC", formatAIC(res.Stats.AIC)) + "\n")
	b.WriteString(MetricLabel.Render("R^2") + " " + Quality(res.Stats.RSquared).Render(fmt.Sprintf("%.6f", res.Stats.RSquared)) + "\n")
	b.WriteString(Metric("adjusted R^2", fmt.Sprintf("%.6f", res.Stats.AdjRSq)) + "\n")
	if res.Iterations > 0 {
		status := Good.Render("converged")
		if !res.Converged {
			status = Warn.Render("iteration limit reached")
		}
		b.WriteString(Metric("iterations", fmt.Sprintf("%d", res.Iterations)) + " " + status + "\n")
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// EquilibriumReport lists the equilibria found for a case.
func EquilibriumReport(a *equilibrium.Analysis) string {
	var b strings.Builder
	b.WriteString(Header.Render("Equilibria, "+a.Case+" case") + "\n")
	if len(a.Points) == 0 {
		b.WriteString(Warn.Render("no equilibrium found") + "\n")
	}
	for i, p := range a.Points {
		b.WriteString(Metric(fmt.Sprintf("x*%d", i+1), fmt.Sprintf("%.9g", p.X)) + "\n")
	}
	for i, x := range a.Crossings {
		b.WriteString(Subtle.Render(fmt.Sprintf("diagram crossing %d near x = %.4g", i+1, x)) + "\n")
	}
	for _, tr := range a.Trajectories {
		if n := len(tr.X); n > 0 {
			b.WriteString(Metric(fmt.Sprintf("a = %g", tr.Rate), fmt.Sprintf("x(%g) = %.6g", a.Times[n-1], tr.X[n-1])) + "\n")
		}
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// ComparisonReport tabulates both models on each scale and names the one
// preferred by AIC.
func ComparisonReport(name string, cmps []odefit.Comparison) string {
	var b strings.Builder
	b.WriteString(Header.Render("Model comparison, "+name) + "\n")
	for _, c := range cmps {
		b.WriteString(Title.Render(c.Scale) + "\n")
		for _, r := range []*growth.FitResult{c.Implicit, c.Explicit} {
			b.WriteString(Metric(r.Model, fmt.Sprintf("AIC %s  R^2 %.4f  %s", formatAIC(r.Stats.AIC), r.Stats.RSquared, r.Params)) + "\n")
		}
		b.WriteString(Good.Render("preferred: "+c.Preferred()) + "\n")
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func formatAIC(v float64) string {
	if math.IsInf(v, -1) {
		return "-Inf (perfect fit)"
	}
	return fmt.Sprintf("%.4f", v)
}
