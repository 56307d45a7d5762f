package experiment

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/odefit"
	"golang.org/x/sync/errgroup"
)

// Report is everything fitted for one specimen.
type Report struct {
	Specimen    string
	Series      growth.Series
	Rates       growth.RateSamples
	Newton      *growth.FitResult
	Growth      []float64
	Comparisons []odefit.Comparison
}

// Fits lists every fit of the report in a stable order.
func (r *Report) Fits() []*growth.FitResult {
	out := []*growth.FitResult{r.Newton}
	for _, c := range r.Comparisons {
		out = append(out, c.Implicit, c.Explicit)
	}
	return out
}

// Batch fits many specimens concurrently. Every specimen gets its own
// fitters and integrators.
type Batch struct {
	Runner  *Runner
	Workers int
}

// Run fits the named specimens and returns their reports in input order. The
// first failure cancels the remaining work.
func (b *Batch) Run(ctx context.Context, specimens []string) ([]*Report, error) {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	reports := make([]*Report, len(specimens))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range specimens {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := b.Runner.Specimen(ctx, name)
			if err != nil {
				return fmt.Errorf("specimen %s: %w", name, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Specimen runs the full analysis of one specimen.
func (r *Runner) Specimen(ctx context.Context, name string) (*Report, error) {
	s, err := r.Series(name)
	if err != nil {
		return nil, err
	}
	rep := &Report{Specimen: name, Series: s}
	if rep.Rates, err = r.Rates(s); err != nil {
		return nil, err
	}
	if rep.Newton, err = r.Newton(ctx, s); err != nil {
		return nil, err
	}
	if rep.Growth, err = r.GrowthCurve(s, rep.Newton); err != nil {
		r.Logger.Warn("growth curve from rate fit failed", "specimen", name, "err", err)
	}
	if rep.Comparisons, err = r.Compare(ctx, s); err != nil {
		return nil, err
	}
	r.Logger.Info("specimen done", "specimen", name,
		"newton_iterations", rep.Newton.Iterations, "newton_converged", rep.Newton.Converged)
	return rep, nil
}
