// Package newton fits the log-linearized Gompertz rate model
//
//	ŷ(x; a, b) = ln(1 / (x^a · e^(a·b·x)))
//
// to (size, per-capita growth rate) samples by Newton-Raphson minimization of
// the residual sum of squares. The objective, gradient and Hessian are built
// symbolically once per fit and evaluated at every iterate.
package newton
