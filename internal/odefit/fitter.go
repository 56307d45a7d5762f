package odefit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/maorshutman/lm"
	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/integrators"
	"github.com/san-kum/gompertz/internal/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// AICPenalty selects the parameter count k used in the AIC penalty term.
type AICPenalty string

const (
	// PenaltyFixed charges k = 2 for every model.
	PenaltyFixed AICPenalty = "fixed"
	// PenaltyCount charges the fitted parameters plus one for the variance.
	PenaltyCount AICPenalty = "count"
)

func (p AICPenalty) k(numParams int) int {
	if p == PenaltyCount {
		return numParams + 1
	}
	return 2
}

// residuals of parameter sets the model cannot evaluate
const failedResidual = 1e100

// Fitter runs Levenberg-Marquardt least squares over a Model.
type Fitter struct {
	Logger      *slog.Logger
	Alpha       float64
	Penalty     AICPenalty
	Iterations  int
	CurvePoints int
	Solver      Solver
}

func NewFitter(logger *slog.Logger) *Fitter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fitter{
		Logger:      logger,
		Alpha:       0.05,
		Penalty:     PenaltyFixed,
		Iterations:  200,
		CurvePoints: 50,
		Solver:      DefaultSolver(),
	}
}

// Fit minimizes Σ (model(tᵢ; p) - yᵢ)² from p0 and reports the estimate with
// its covariance s²·(JᵀJ)⁻¹, Student-t intervals, a confidence band at the
// data points, a dense curve over the data span and fit statistics.
func (f *Fitter) Fit(m Model, t, y, p0 []float64) (*growth.FitResult, error) {
	names := m.Params()
	k := len(names)
	if len(t) != len(y) {
		return nil, fmt.Errorf("%s: %d times vs %d observations: %w", m.Name(), len(t), len(y), dynamo.ErrDimensionMismatch)
	}
	if len(p0) != k {
		return nil, fmt.Errorf("%s: %d initial values for %d parameters: %w", m.Name(), len(p0), k, dynamo.ErrDimensionMismatch)
	}
	if len(y) <= k || len(y) < 3 {
		return nil, fmt.Errorf("%s: %d observations for %d parameters: %w", m.Name(), len(y), k, dynamo.ErrDegenerateInput)
	}
	fail := func(op string, p []float64, err error) error {
		return &dynamo.FitError{Op: m.Name() + " " + op, Names: names, Params: append([]float64(nil), p...), Wrapped: err}
	}

	var evalErr error
	residual := func(dst, p []float64) {
		pred, err := m.Predict(t, p)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			for i := range dst {
				dst[i] = failedResidual
			}
			return
		}
		floats.SubTo(dst, pred, y)
	}
	nj := &lm.NumJac{Func: residual}

	problem := lm.LMProblem{
		Dim:        k,
		Size:       len(y),
		Func:       residual,
		Jac:        nj.Jac,
		InitParams: append([]float64(nil), p0...),
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	result, err := solve(problem, &lm.Settings{Iterations: f.Iterations, ObjectiveTol: 1e-16})
	if err != nil {
		return nil, fail("least squares", p0, err)
	}
	if floats.HasNaN(result.X) || hasInf(result.X) {
		return nil, fail("least squares", p0, fmt.Errorf("non-finite estimate: %w", dynamo.ErrConvergence))
	}
	if result.Status == optimize.IterationLimit {
		return nil, fail("least squares", result.X, fmt.Errorf("%d iterations: %w", f.Iterations, dynamo.ErrConvergence))
	}

	fitted, err := m.Predict(t, result.X)
	if err != nil {
		return nil, fail("predict", result.X, err)
	}
	if evalErr != nil {
		f.Logger.Debug("trial parameters rejected during search", "model", m.Name(), "error", evalErr)
	}

	pv := growth.NewParameterVector(names, result.X)
	res := &growth.FitResult{
		Model:     m.Name(),
		Params:    pv,
		Converged: true,
		X:         append([]float64(nil), t...),
		Observed:  append([]float64(nil), y...),
		Fitted:    fitted,
	}
	if res.Stats, err = stats.Summarize(y, fitted, k, f.Penalty.k(k)); err != nil {
		return nil, fail("statistics", result.X, err)
	}

	jac := mat.NewDense(len(y), k, nil)
	nj.Jac(jac, result.X)
	cov, err := covariance(jac, res.Stats.SSE/float64(len(y)-k))
	if err != nil {
		return nil, fail("covariance", result.X, err)
	}
	res.Covariance = append([]float64(nil), cov.RawSymmetric().Data...)

	tcrit, err := stats.CriticalValue(f.Alpha, len(y)-k)
	if err != nil {
		return nil, fail("critical value", result.X, err)
	}
	if res.Stats.Intervals, err = stats.Intervals(pv, cov, tcrit, 1-f.Alpha); err != nil {
		return nil, fail("intervals", result.X, err)
	}
	grads := make([][]float64, len(y))
	for i := range grads {
		grads[i] = mat.Row(nil, i, jac)
	}
	if res.BandLower, res.BandUpper, err = stats.Band(fitted, grads, cov, tcrit); err != nil {
		return nil, fail("band", result.X, err)
	}

	if f.CurvePoints > 1 {
		res.CurveX = integrators.Linspace(t[0], t[len(t)-1], f.CurvePoints)
		if res.CurveY, err = m.Predict(res.CurveX, result.X); err != nil {
			return nil, fail("curve", result.X, err)
		}
	}

	f.Logger.Info("least-squares fit", "model", m.Name(), "params", pv.String(),
		"sse", res.Stats.SSE, "aic", res.Stats.AIC, "r2", res.Stats.RSquared)
	return res, nil
}

// solve runs lm.LM, which panics on a singular damped normal system.
func solve(problem lm.LMProblem, settings *lm.Settings) (res *lm.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("levenberg-marquardt: %v: %w", r, dynamo.ErrSingularSystem)
		}
	}()
	res, err = lm.LM(problem, settings)
	if err != nil {
		return nil, fmt.Errorf("levenberg-marquardt: %v: %w", err, dynamo.ErrConvergence)
	}
	return res, nil
}

func covariance(jac *mat.Dense, s2 float64) (*mat.SymDense, error) {
	_, k := jac.Dims()
	jtj := mat.NewSymDense(k, nil)
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok {
		return nil, fmt.Errorf("JᵀJ is not positive definite: %w", dynamo.ErrSingularSystem)
	}
	cov := mat.NewSymDense(k, nil)
	if err := chol.InverseTo(cov); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
		return nil, fmt.Errorf("condition number %g: %w", float64(cond), dynamo.ErrSingularSystem)
	}
	cov.ScaleSym(s2, cov)
	return cov, nil
}

func hasInf(xs []float64) bool {
	for _, x := range xs {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
