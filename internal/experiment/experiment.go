package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/gompertz/internal/config"
	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/equilibrium"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/newton"
	"github.com/san-kum/gompertz/internal/odefit"
	"github.com/san-kum/gompertz/internal/optim"
	"github.com/san-kum/gompertz/internal/telemetry"
)

// Runner builds fitters and analyses from a configuration.
type Runner struct {
	Config   *config.Config
	Registry *Registry
	Logger   *slog.Logger
	Metrics  telemetry.Recorder
}

func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{Config: cfg, Registry: NewRegistry(), Logger: logger, Metrics: telemetry.NoOp{}}
	if _, err := r.Registry.GetIntegrator(cfg.ODEFit.Integrator); err != nil {
		return nil, fmt.Errorf("odefit.integrator: %w", err)
	}
	return r, nil
}

// Series loads a configured specimen with its excluded rows removed.
func (r *Runner) Series(name string) (growth.Series, error) {
	spec, err := r.Config.Specimen(name)
	if err != nil {
		return growth.Series{}, err
	}
	s, err := spec.Load()
	if err != nil {
		return growth.Series{}, err
	}
	r.Logger.Debug("loaded specimen", "specimen", name, "records", s.Len(), "excluded", spec.Exclude)
	return s, nil
}

// Solver builds the integrator settings for implicit models. Each call returns
// an integrator of its own.
func (r *Runner) Solver() (odefit.Solver, error) {
	oc := r.Config.ODEFit
	integ, err := r.Registry.GetIntegrator(oc.Integrator)
	if err != nil {
		return odefit.Solver{}, err
	}
	cfg := dynamo.DefaultConfig()
	cfg.Dt = oc.Dt
	cfg.Tolerance = oc.Tolerance
	_, cfg.Adaptive = integ.(dynamo.AdaptiveIntegrator)
	return odefit.Solver{Integrator: integ, Config: cfg}, nil
}

func (r *Runner) ODEFitter() (*odefit.Fitter, error) {
	solver, err := r.Solver()
	if err != nil {
		return nil, err
	}
	oc := r.Config.ODEFit
	f := odefit.NewFitter(r.Logger)
	f.Alpha = oc.Alpha
	f.Penalty = odefit.AICPenalty(oc.AICPenalty)
	f.Iterations = oc.LMIterations
	f.CurvePoints = oc.CurvePoints
	f.Solver = solver
	return f, nil
}

func (r *Runner) NewtonFitter() *newton.Fitter {
	f := newton.NewFitter(r.Logger)
	f.Alpha = r.Config.Newton.Alpha
	return f
}

// Rates derives the rate samples for the Newton fit.
func (r *Runner) Rates(s growth.Series) (growth.RateSamples, error) {
	rs, err := growth.NewRateSamples(s, r.Config.Newton.IncludeSentinel)
	if err != nil {
		return growth.RateSamples{}, err
	}
	if rs.Sentinel {
		r.Logger.Warn("padded zero rate included as an observation",
			"specimen", s.Name, "volume", rs.Volumes[rs.Len()-1])
	}
	return rs, nil
}

// Newton fits the rate model to the specimen's growth rates.
func (r *Runner) Newton(ctx context.Context, s growth.Series) (*growth.FitResult, error) {
	rs, err := r.Rates(s)
	if err != nil {
		return nil, err
	}
	nc := r.Config.Newton
	guess := nc.Guess
	if nc.Search.Enabled {
		if guess, err = r.searchGuess(ctx, rs); err != nil {
			return nil, fmt.Errorf("specimen %s: starting point search: %w", s.Name, err)
		}
	}
	start := time.Now()
	res, err := r.NewtonFitter().Fit(rs.Volumes, rs.Rates, guess, nc.Tolerance, nc.MaxIterations)
	r.Metrics.RecordFit(ctx, s.Name, newton.ModelName, res, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("specimen %s: %w", s.Name, err)
	}
	return res, nil
}

func (r *Runner) searchGuess(ctx context.Context, rs growth.RateSamples) ([]float64, error) {
	obj, err := newton.NewSymbolicObjective(rs.Volumes, rs.Rates)
	if err != nil {
		return nil, err
	}
	sc := r.Config.Newton.Search
	g := optim.NewGridSearch(obj.Params(), [][]float64{sc.A.Values(), sc.B.Values()})
	best, err := g.Search(ctx, obj.Value)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("starting point from grid", "guess", best.Params, "objective", best.Value,
		"evaluated", best.Evaluated, "failed", best.Failed)
	return best.Params, nil
}

// GrowthCurve integrates the ODE implied by a rate fit over the series' times.
func (r *Runner) GrowthCurve(s growth.Series, res *growth.FitResult) ([]float64, error) {
	integ, err := r.Registry.GetIntegrator("rk45")
	if err != nil {
		return nil, err
	}
	return newton.Trajectory(res.Params, s.First(), s.Times(), integ, dynamo.DefaultConfig())
}

// Fit runs one registered ODE model on the specimen.
func (r *Runner) Fit(ctx context.Context, s growth.Series, model string) (*growth.FitResult, error) {
	m, err := r.Registry.GetModel(model)
	if err != nil {
		return nil, err
	}
	f, err := r.ODEFitter()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := m.Fit(f, s, m.Guess(r.Config.ODEFit.Guesses()))
	r.Metrics.RecordFit(ctx, s.Name, model, res, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("specimen %s: %w", s.Name, err)
	}
	return res, nil
}

// Compare fits both ODE models on both scales.
func (r *Runner) Compare(ctx context.Context, s growth.Series) ([]odefit.Comparison, error) {
	f, err := r.ODEFitter()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	cmps, err := f.Compare(s, r.Config.ODEFit.Guesses())
	if err != nil {
		r.Metrics.RecordFit(ctx, s.Name, "compare", nil, time.Since(start), err)
		return nil, fmt.Errorf("specimen %s: %w", s.Name, err)
	}
	elapsed := time.Since(start)
	if len(cmps) > 0 {
		elapsed /= time.Duration(2 * len(cmps))
	}
	for _, c := range cmps {
		r.Metrics.RecordFit(ctx, s.Name, c.Implicit.Model, c.Implicit, elapsed, nil)
		r.Metrics.RecordFit(ctx, s.Name, c.Explicit.Model, c.Explicit, elapsed, nil)
		r.Logger.Info("model comparison", "specimen", s.Name, "scale", c.Scale,
			"implicit_aic", c.Implicit.Stats.AIC, "explicit_aic", c.Explicit.Stats.AIC,
			"preferred", c.Preferred())
	}
	return cmps, nil
}

// Equilibrium analyses a configured case.
func (r *Runner) Equilibrium(name string) (*equilibrium.Analysis, error) {
	c, err := r.Config.Case(name)
	if err != nil {
		return nil, err
	}
	integ, err := r.Registry.GetIntegrator("rk45")
	if err != nil {
		return nil, err
	}
	settings := r.Config.Settings(name)
	settings.Integrator = integ
	a, err := equilibrium.Analyze(c, settings)
	if err != nil {
		return nil, fmt.Errorf("%s case: %w", name, err)
	}
	for _, p := range a.Points {
		r.Logger.Info("equilibrium", "case", name, "x", p.X)
	}
	return a, nil
}

// Family tabulates the configured line family against -ln(x).
func (r *Runner) Family() equilibrium.Diagram {
	ec := r.Config.Equilibrium
	return equilibrium.LineFamily(ec.LineFamily, ec.Exponential.C, ec.FamilyGrid.Values())
}
