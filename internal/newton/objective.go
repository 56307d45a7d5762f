package newton

import (
	"fmt"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/symbolic"
	"gonum.org/v1/gonum/mat"
)

// Objective is a twice-differentiable scalar function of the parameters,
// minimized by the Newton iteration.
type Objective interface {
	Params() []string
	Value(p []float64) (float64, error)
	EvaluateGradient(p []float64) ([]float64, error)
	EvaluateHessian(p []float64) (*mat.SymDense, error)
}

// Parameter names of the rate model.
const (
	ParamA = "a"
	ParamB = "b"
)

var rateParams = []string{ParamA, ParamB}

// RateModel returns ŷ(x; a, b) = ln(1 / (x^a · e^(a·b·x))) as an expression
// in the given size term.
func RateModel(x symbolic.Expr) symbolic.Expr {
	a, b := symbolic.Var(ParamA), symbolic.Var(ParamB)
	denom := symbolic.Mul(symbolic.Pow(x, a), symbolic.Exp(symbolic.Mul(a, b, x)))
	return symbolic.Log(symbolic.Div(symbolic.Const(1), denom))
}

// SymbolicObjective is S(a, b) = Σ (ŷ(xᵢ) - yᵢ)² over fixed data. The
// objective, its gradient and its Hessian are derived once at construction
// and only evaluated afterwards.
type SymbolicObjective struct {
	names []string
	s     symbolic.Expr
	grad  []symbolic.Expr
	hess  [][]symbolic.Expr
}

// NewSymbolicObjective binds the rate-model objective to (x, y).
func NewSymbolicObjective(x, y []float64) (*SymbolicObjective, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("objective: %d x values vs %d y values: %w", len(x), len(y), dynamo.ErrDimensionMismatch)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("objective: no data: %w", dynamo.ErrDegenerateInput)
	}
	terms := make([]symbolic.Expr, len(x))
	for i := range x {
		terms[i] = symbolic.Sq(symbolic.Sub(RateModel(symbolic.Const(x[i])), symbolic.Const(y[i])))
	}
	s := symbolic.Add(terms...)
	return &SymbolicObjective{
		names: rateParams,
		s:     s,
		grad:  symbolic.Gradient(s, rateParams),
		hess:  symbolic.Hessian(s, rateParams),
	}, nil
}

func (o *SymbolicObjective) Params() []string { return o.names }

func (o *SymbolicObjective) env(p []float64) (symbolic.Env, error) {
	if len(p) != len(o.names) {
		return nil, fmt.Errorf("objective: %d parameters, want %d: %w", len(p), len(o.names), dynamo.ErrDimensionMismatch)
	}
	return symbolic.Bind(o.names, p), nil
}

func (o *SymbolicObjective) Value(p []float64) (float64, error) {
	env, err := o.env(p)
	if err != nil {
		return 0, err
	}
	return o.s.Eval(env)
}

func (o *SymbolicObjective) EvaluateGradient(p []float64) ([]float64, error) {
	env, err := o.env(p)
	if err != nil {
		return nil, err
	}
	return symbolic.EvalVector(o.grad, env)
}

func (o *SymbolicObjective) EvaluateHessian(p []float64) (*mat.SymDense, error) {
	env, err := o.env(p)
	if err != nil {
		return nil, err
	}
	data, err := symbolic.EvalMatrix(o.hess, env)
	if err != nil {
		return nil, err
	}
	return mat.NewSymDense(len(o.names), data), nil
}
