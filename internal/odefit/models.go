package odefit

import (
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/integrators"
)

// Model predicts observations at time points from a parameter vector.
type Model interface {
	Name() string
	Params() []string
	Predict(t, p []float64) ([]float64, error)
}

const (
	ParamR = "r"
	ParamB = "b"
)

func checkParams(m Model, p []float64) error {
	if len(p) != len(m.Params()) {
		return fmt.Errorf("%s: %d parameters, want %d: %w", m.Name(), len(p), len(m.Params()), dynamo.ErrDimensionMismatch)
	}
	return nil
}

// Solver selects how implicit models are integrated.
type Solver struct {
	Integrator dynamo.Integrator
	Config     dynamo.Config
}

// DefaultSolver takes fixed RK4 steps so predictions vary smoothly with the
// parameters under finite-difference Jacobians.
func DefaultSolver() Solver {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = 1e-2
	cfg.Adaptive = false
	return Solver{Integrator: integrators.NewRK4(), Config: cfg}
}

// ImplicitRHS is dy/dt = -r·y·ln(y·e^(b·y)).
func ImplicitRHS(r, b float64) dynamo.Func {
	return func(y, _ float64) float64 {
		if y <= 0 {
			return math.NaN()
		}
		return -r * y * (math.Log(y) + b*y)
	}
}

// Implicit is the variable carrying capacity model, integrated numerically
// from Y0 at the first requested time.
type Implicit struct {
	Y0     float64
	Solver Solver
}

func NewImplicit(y0 float64, s Solver) *Implicit { return &Implicit{Y0: y0, Solver: s} }

func (m *Implicit) Name() string     { return "implicit" }
func (m *Implicit) Params() []string { return []string{ParamR, ParamB} }

func (m *Implicit) Predict(t, p []float64) ([]float64, error) {
	if err := checkParams(m, p); err != nil {
		return nil, err
	}
	return integrators.SolveScalar(ImplicitRHS(p[0], p[1]), m.Y0, t, m.Solver.Integrator, m.Solver.Config)
}

// ImplicitLogRHS is the implicit model for z = log10(y):
// dz/dt = -r·ln(10^z·e^(b·10^z)) / ln 10.
func ImplicitLogRHS(r, b float64) dynamo.Func {
	return func(z, _ float64) float64 {
		return -r * (z*math.Ln10 + b*math.Pow(10, z)) / math.Ln10
	}
}

// ImplicitLog fits the implicit model on the log10 scale from Z0 = log10(y0).
type ImplicitLog struct {
	Z0     float64
	Solver Solver
}

func NewImplicitLog(y0 float64, s Solver) (*ImplicitLog, error) {
	if y0 <= 0 {
		return nil, fmt.Errorf("implicit-log: initial size %g: %w", y0, dynamo.ErrMathDomain)
	}
	return &ImplicitLog{Z0: math.Log10(y0), Solver: s}, nil
}

func (m *ImplicitLog) Name() string     { return "implicit-log10" }
func (m *ImplicitLog) Params() []string { return []string{ParamR, ParamB} }

func (m *ImplicitLog) Predict(t, p []float64) ([]float64, error) {
	if err := checkParams(m, p); err != nil {
		return nil, err
	}
	return integrators.SolveScalar(ImplicitLogRHS(p[0], p[1]), m.Z0, t, m.Solver.Integrator, m.Solver.Config)
}

// Explicit is the closed-form Gompertz solution
// y(t) = K^(1-e^(-rt)) · x0^(e^(-rt)) with fixed K and x0. t is absolute
// time, so x0 is the value the curve takes at t = 0.
type Explicit struct {
	K, X0 float64
}

// NewExplicit rejects K == x0, where the curve no longer depends on r.
func NewExplicit(k, x0 float64) (*Explicit, error) {
	if k == x0 {
		return nil, fmt.Errorf("explicit: carrying capacity equals initial size (%g): %w", k, dynamo.ErrDegenerateInput)
	}
	if k <= 0 || x0 <= 0 {
		return nil, fmt.Errorf("explicit: K = %g, x0 = %g: %w", k, x0, dynamo.ErrMathDomain)
	}
	return &Explicit{K: k, X0: x0}, nil
}

func (m *Explicit) Name() string     { return "explicit" }
func (m *Explicit) Params() []string { return []string{ParamR} }

func (m *Explicit) Predict(t, p []float64) ([]float64, error) {
	if err := checkParams(m, p); err != nil {
		return nil, err
	}
	out := make([]float64, len(t))
	for i, ti := range t {
		e := math.Exp(-p[0] * ti)
		v := math.Pow(m.K, 1-e) * math.Pow(m.X0, e)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("explicit: r = %g at t = %g gives %g: %w", p[0], ti, v, dynamo.ErrMathDomain)
		}
		out[i] = v
	}
	return out, nil
}

// ExplicitLog is log10 of the explicit model.
type ExplicitLog struct {
	Explicit
}

func NewExplicitLog(k, x0 float64) (*ExplicitLog, error) {
	e, err := NewExplicit(k, x0)
	if err != nil {
		return nil, err
	}
	return &ExplicitLog{Explicit: *e}, nil
}

func (m *ExplicitLog) Name() string { return "explicit-log10" }

func (m *ExplicitLog) Predict(t, p []float64) ([]float64, error) {
	if err := checkParams(m, p); err != nil {
		return nil, err
	}
	out := make([]float64, len(t))
	for i, ti := range t {
		e := math.Exp(-p[0] * ti)
		v := ((1-e)*math.Log(m.K) + e*math.Log(m.X0)) / math.Ln10
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("explicit-log10: r = %g at t = %g: %w", p[0], ti, dynamo.ErrMathDomain)
		}
		out[i] = v
	}
	return out, nil
}
