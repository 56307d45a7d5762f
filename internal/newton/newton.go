package newton

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/stats"
	"github.com/san-kum/gompertz/internal/symbolic"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ModelName identifies Newton rate fits in stored results.
const ModelName = "newton-rate"

// Fitter minimizes least-squares objectives by Newton-Raphson iteration.
type Fitter struct {
	Logger *slog.Logger
	// Alpha is the significance level of the reported intervals.
	Alpha float64
}

func NewFitter(logger *slog.Logger) *Fitter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fitter{Logger: logger, Alpha: 0.05}
}

// Iterate is the outcome of Minimize.
type Iterate struct {
	Params     []float64
	Objective  float64
	Iterations int
	Converged  bool
	GradNorms  []float64
}

// Minimize runs the Newton iteration from guess. It stops when the change in
// objective value between successive iterates drops below tol. Reaching
// maxIter without converging is not an error; the last iterate is returned
// with Converged unset.
func (f *Fitter) Minimize(obj Objective, guess []float64, tol float64, maxIter int) (*Iterate, error) {
	names := obj.Params()
	if len(guess) != len(names) {
		return nil, fmt.Errorf("newton: %d initial values for %d parameters: %w", len(guess), len(names), dynamo.ErrDimensionMismatch)
	}
	fail := func(op string, it int, p []float64, err error) error {
		return &dynamo.FitError{Op: op, Iteration: it, Names: names, Params: append([]float64(nil), p...), Wrapped: err}
	}

	p := append([]float64(nil), guess...)
	cur, err := obj.Value(p)
	if err != nil {
		return nil, fail("newton objective", 0, p, err)
	}

	res := &Iterate{}
	diff := cur
	it := 0
	for i := 0; i < maxIter; i++ {
		g, err := obj.EvaluateGradient(p)
		if err != nil {
			return nil, fail("newton gradient", it, p, err)
		}
		gn := floats.Norm(g, 2)
		res.GradNorms = append(res.GradNorms, gn)
		f.Logger.Debug("newton iteration", "iter", it, "objective", cur, "delta", diff, "grad_norm", gn)

		if diff < tol {
			res.Converged = true
			break
		}

		it++
		h, err := obj.EvaluateHessian(p)
		if err != nil {
			return nil, fail("newton hessian", it, p, err)
		}
		var inv mat.Dense
		if err := inv.Inverse(h); err != nil {
			return nil, fail("newton step", it, p, fmt.Errorf("%v: %w", err, dynamo.ErrSingularSystem))
		}
		var step mat.VecDense
		step.MulVec(&inv, mat.NewVecDense(len(g), g))
		step.ScaleVec(-1, &step)

		next := make([]float64, len(p))
		floats.AddTo(next, p, step.RawVector().Data)
		val, err := obj.Value(next)
		if err != nil {
			return nil, fail("newton objective", it, next, err)
		}
		diff = math.Abs(val - cur)
		p, cur = next, val
	}

	res.Params = p
	res.Objective = cur
	res.Iterations = it
	if res.Converged {
		f.Logger.Info("newton converged", "iterations", it, "tol", tol, "params", growth.NewParameterVector(names, p).String())
	} else {
		f.Logger.Info("newton stopped at iteration limit", "iterations", it, "params", growth.NewParameterVector(names, p).String())
	}
	return res, nil
}

// Fit fits the rate model ŷ(x; a, b) = ln(1 / (x^a · e^(a·b·x))) to (x, y)
// and attaches the fitted curve, covariance, intervals, confidence band and
// goodness-of-fit statistics.
func (f *Fitter) Fit(x, y, guess []float64, tol float64, maxIter int) (*growth.FitResult, error) {
	obj, err := NewSymbolicObjective(x, y)
	if err != nil {
		return nil, err
	}
	iter, err := f.Minimize(obj, guess, tol, maxIter)
	if err != nil {
		return nil, err
	}

	pv := growth.NewParameterVector(obj.Params(), iter.Params)
	fail := func(op string, err error) error {
		return &dynamo.FitError{Op: op, Iteration: iter.Iterations, Names: pv.Names, Params: pv.Values, Wrapped: err}
	}
	fitted, grads, err := predict(x, pv)
	if err != nil {
		return nil, fail("newton predict", err)
	}

	res := &growth.FitResult{
		Model:      ModelName,
		Params:     pv,
		Iterations: iter.Iterations,
		Converged:  iter.Converged,
		GradNorms:  iter.GradNorms,
		X:          append([]float64(nil), x...),
		Observed:   append([]float64(nil), y...),
		Fitted:     fitted,
	}

	k := pv.Len()
	res.Stats, err = stats.Summarize(y, fitted, k, k)
	if err != nil {
		return nil, err
	}

	// The covariance comes from the Hessian at the final iterate, which after
	// a soft stop need not be positive definite.
	cov, err := f.covariance(obj, pv.Values, res.Stats.SSE, len(x)-k)
	if err != nil {
		return nil, fail("newton covariance", err)
	}
	res.Covariance = append([]float64(nil), cov.RawSymmetric().Data...)

	tcrit, err := stats.CriticalValue(f.Alpha, len(x)-k)
	if err != nil {
		return nil, fail("newton critical value", err)
	}
	if res.Stats.Intervals, err = stats.Intervals(pv, cov, tcrit, 1-f.Alpha); err != nil {
		return nil, fail("newton intervals", err)
	}
	if res.BandLower, res.BandUpper, err = stats.Band(fitted, grads, cov, tcrit); err != nil {
		return nil, fail("newton band", err)
	}
	return res, nil
}

// covariance approximates s²·(JᵀJ)⁻¹ by 2·s²·H⁻¹ at the solution.
func (f *Fitter) covariance(obj Objective, p []float64, sse float64, dof int) (*mat.SymDense, error) {
	h, err := obj.EvaluateHessian(p)
	if err != nil {
		return nil, err
	}
	var inv mat.Dense
	if err := inv.Inverse(h); err != nil {
		return nil, fmt.Errorf("%v: %w", err, dynamo.ErrSingularSystem)
	}
	s2 := sse / float64(dof)
	n := len(p)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, s2*(inv.At(i, j)+inv.At(j, i)))
		}
	}
	return cov, nil
}

// predict evaluates the rate model and its parameter sensitivities at x.
func predict(x []float64, p growth.ParameterVector) ([]float64, [][]float64, error) {
	model := RateModel(symbolic.Var("x"))
	sens := symbolic.Gradient(model, p.Names)
	env := symbolic.Bind(p.Names, p.Values)

	fitted := make([]float64, len(x))
	grads := make([][]float64, len(x))
	for i, xi := range x {
		env["x"] = xi
		v, err := model.Eval(env)
		if err != nil {
			return nil, nil, fmt.Errorf("x = %g: %w", xi, err)
		}
		g, err := symbolic.EvalVector(sens, env)
		if err != nil {
			return nil, nil, fmt.Errorf("x = %g: %w", xi, err)
		}
		fitted[i] = v
		grads[i] = g
	}
	return fitted, grads, nil
}

// Predict evaluates the fitted rate model at x.
func Predict(x []float64, p growth.ParameterVector) ([]float64, error) {
	y, _, err := predict(x, p)
	return y, err
}
