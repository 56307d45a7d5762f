// Package symbolic implements small expression trees with exact
// differentiation.
//
// Expressions are built from [Const], [Var] and the operators [Add], [Mul],
// [Pow], [Log] and [Exp] (plus the helpers [Sub], [Div], [Neg], [Sq]).
// Builders fold constants and drop identities, so derivative trees stay
// compact. [Gradient] and [Hessian] derive partials once; the resulting
// trees are then evaluated numerically at as many points as needed:
//
//	a, b := symbolic.Var("a"), symbolic.Var("b")
//	s := symbolic.Sq(symbolic.Sub(symbolic.Mul(a, b), symbolic.Const(1)))
//	h := symbolic.Hessian(s, []string{"a", "b"})
//	vals, err := symbolic.EvalMatrix(h, symbolic.Env{"a": 1, "b": 2})
//
// Evaluation is strict: a logarithm of a non-positive value, a power with no
// real result, or an overflow returns [dynamo.ErrMathDomain] instead of NaN.
package symbolic
