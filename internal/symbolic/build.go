package symbolic

import "math"

// Add builds a sum, flattening nested sums and folding constants.
func Add(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	c := 0.0
	for _, t := range terms {
		switch n := t.(type) {
		case constant:
			c += n.v
		case sum:
			for _, inner := range n.terms {
				if v, ok := constValue(inner); ok {
					c += v
				} else {
					flat = append(flat, inner)
				}
			}
		default:
			flat = append(flat, t)
		}
	}
	if c != 0 {
		flat = append(flat, Const(c))
	}
	switch len(flat) {
	case 0:
		return Const(0)
	case 1:
		return flat[0]
	}
	return sum{flat}
}

func Sub(a, b Expr) Expr { return Add(a, Neg(b)) }

func Neg(e Expr) Expr { return Mul(Const(-1), e) }

// Mul builds a product, flattening nested products and folding constants.
// A zero factor collapses the product to zero.
func Mul(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	c := 1.0
	for _, f := range factors {
		switch n := f.(type) {
		case constant:
			c *= n.v
		case product:
			for _, inner := range n.factors {
				if v, ok := constValue(inner); ok {
					c *= v
				} else {
					flat = append(flat, inner)
				}
			}
		default:
			flat = append(flat, f)
		}
	}
	if c == 0 {
		return Const(0)
	}
	if c != 1 {
		flat = append([]Expr{Const(c)}, flat...)
	}
	switch len(flat) {
	case 0:
		return Const(c)
	case 1:
		return flat[0]
	}
	return product{flat}
}

func Div(a, b Expr) Expr { return Mul(a, Pow(b, Const(-1))) }

// Pow builds base^exp. Constant operands are folded only when the result is
// finite, so out-of-domain constants still fail at evaluation time.
func Pow(base, exp Expr) Expr {
	if isConst(exp, 0) {
		return Const(1)
	}
	if isConst(exp, 1) {
		return base
	}
	if isConst(base, 1) {
		return Const(1)
	}
	if b, ok := constValue(base); ok {
		if e, ok := constValue(exp); ok {
			if r := math.Pow(b, e); finite(r) {
				return Const(r)
			}
		}
	}
	if inner, ok := base.(power); ok {
		// (u^p)^q = u^(p*q) only for integer outer exponents, where it holds for every real u.
		if q, ok := constValue(exp); ok && q == math.Trunc(q) {
			if p, ok := constValue(inner.exp); ok && p == math.Trunc(p) {
				return Pow(inner.base, Const(p*q))
			}
		}
	}
	return power{base, exp}
}

func Sq(e Expr) Expr { return Pow(e, Const(2)) }

// Log builds the natural logarithm.
func Log(arg Expr) Expr {
	if v, ok := constValue(arg); ok && v > 0 && finite(v) {
		return Const(math.Log(v))
	}
	if x, ok := arg.(exponential); ok {
		return x.arg
	}
	return logarithm{arg}
}

func Exp(arg Expr) Expr {
	if v, ok := constValue(arg); ok {
		if r := math.Exp(v); finite(r) {
			return Const(r)
		}
	}
	return exponential{arg}
}
