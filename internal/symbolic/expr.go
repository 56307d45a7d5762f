package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/gompertz/internal/dynamo"
)

// Env binds variable names to values for evaluation.
type Env map[string]float64

// Expr is an immutable scalar expression over named real variables.
type Expr interface {
	// Eval computes the numeric value. Logarithms and powers fed a
	// non-positive or non-finite argument return dynamo.ErrMathDomain.
	Eval(env Env) (float64, error)
	String() string

	diff(v string) Expr
	dependsOn(v string) bool
	collectVars(into map[string]struct{})
}

type constant struct{ v float64 }

type variable struct{ name string }

type sum struct{ terms []Expr }

type product struct{ factors []Expr }

type power struct{ base, exp Expr }

type logarithm struct{ arg Expr }

type exponential struct{ arg Expr }

func Const(v float64) Expr { return constant{v} }

func Var(name string) Expr { return variable{name} }

// Vars returns the sorted names of every variable appearing in e.
func Vars(e Expr) []string {
	set := make(map[string]struct{})
	e.collectVars(set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func constValue(e Expr) (float64, bool) {
	c, ok := e.(constant)
	return c.v, ok
}

func isConst(e Expr, v float64) bool {
	c, ok := constValue(e)
	return ok && c == v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (c constant) Eval(Env) (float64, error) { return c.v, nil }

func (c constant) String() string { return fmt.Sprintf("%g", c.v) }

func (c constant) diff(string) Expr { return Const(0) }

func (c constant) dependsOn(string) bool { return false }

func (c constant) collectVars(map[string]struct{}) {}

func (x variable) String() string { return x.name }

func (x variable) dependsOn(v string) bool { return x.name == v }

func (x variable) collectVars(into map[string]struct{}) { into[x.name] = struct{}{} }

func (x variable) Eval(env Env) (float64, error) {
	v, ok := env[x.name]
	if !ok {
		return 0, fmt.Errorf("symbolic: unbound variable %q", x.name)
	}
	return v, nil
}

func (x variable) diff(v string) Expr {
	if x.name == v {
		return Const(1)
	}
	return Const(0)
}

func (s sum) Eval(env Env) (float64, error) {
	total := 0.0
	for _, t := range s.terms {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		total += v
	}
	if !finite(total) {
		return 0, fmt.Errorf("sum overflowed to %g: %w", total, dynamo.ErrMathDomain)
	}
	return total, nil
}

func (s sum) String() string {
	parts := make([]string, len(s.terms))
	for i, t := range s.terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

func (s sum) diff(v string) Expr {
	terms := make([]Expr, 0, len(s.terms))
	for _, t := range s.terms {
		if t.dependsOn(v) {
			terms = append(terms, t.diff(v))
		}
	}
	return Add(terms...)
}

func (s sum) dependsOn(v string) bool {
	for _, t := range s.terms {
		if t.dependsOn(v) {
			return true
		}
	}
	return false
}

func (s sum) collectVars(into map[string]struct{}) {
	for _, t := range s.terms {
		t.collectVars(into)
	}
}

func (p product) Eval(env Env) (float64, error) {
	total := 1.0
	for _, f := range p.factors {
		v, err := f.Eval(env)
		if err != nil {
			return 0, err
		}
		total *= v
	}
	if !finite(total) {
		return 0, fmt.Errorf("product overflowed to %g: %w", total, dynamo.ErrMathDomain)
	}
	return total, nil
}

func (p product) String() string {
	parts := make([]string, len(p.factors))
	for i, f := range p.factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, "*")
}

// Product rule: sum over i of f1 ... fi' ... fn.
func (p product) diff(v string) Expr {
	terms := make([]Expr, 0, len(p.factors))
	for i, f := range p.factors {
		if !f.dependsOn(v) {
			continue
		}
		factors := make([]Expr, len(p.factors))
		copy(factors, p.factors)
		factors[i] = f.diff(v)
		terms = append(terms, Mul(factors...))
	}
	return Add(terms...)
}

func (p product) dependsOn(v string) bool {
	for _, f := range p.factors {
		if f.dependsOn(v) {
			return true
		}
	}
	return false
}

func (p product) collectVars(into map[string]struct{}) {
	for _, f := range p.factors {
		f.collectVars(into)
	}
}

func (p power) Eval(env Env) (float64, error) {
	b, err := p.base.Eval(env)
	if err != nil {
		return 0, err
	}
	e, err := p.exp.Eval(env)
	if err != nil {
		return 0, err
	}
	r := math.Pow(b, e)
	if !finite(r) {
		return 0, fmt.Errorf("pow(%g, %g) = %g: %w", b, e, r, dynamo.ErrMathDomain)
	}
	return r, nil
}

func (p power) String() string {
	return fmt.Sprintf("(%s)^(%s)", p.base, p.exp)
}

func (p power) diff(v string) Expr {
	baseDep := p.base.dependsOn(v)
	expDep := p.exp.dependsOn(v)
	switch {
	case baseDep && !expDep:
		// d(u^c) = c * u^(c-1) * u'
		return Mul(p.exp, Pow(p.base, Sub(p.exp, Const(1))), p.base.diff(v))
	case !baseDep && expDep:
		// d(c^w) = c^w * ln(c) * w'
		return Mul(p, Log(p.base), p.exp.diff(v))
	case baseDep && expDep:
		// d(u^w) = u^w * (w' ln(u) + w u'/u)
		return Mul(p, Add(
			Mul(p.exp.diff(v), Log(p.base)),
			Mul(p.exp, p.base.diff(v), Pow(p.base, Const(-1))),
		))
	default:
		return Const(0)
	}
}

func (p power) dependsOn(v string) bool { return p.base.dependsOn(v) || p.exp.dependsOn(v) }

func (p power) collectVars(into map[string]struct{}) {
	p.base.collectVars(into)
	p.exp.collectVars(into)
}

func (l logarithm) Eval(env Env) (float64, error) {
	a, err := l.arg.Eval(env)
	if err != nil {
		return 0, err
	}
	if !(a > 0) || math.IsInf(a, 0) {
		return 0, fmt.Errorf("log(%g): %w", a, dynamo.ErrMathDomain)
	}
	return math.Log(a), nil
}

func (l logarithm) String() string { return "log(" + l.arg.String() + ")" }

func (l logarithm) diff(v string) Expr {
	return Mul(l.arg.diff(v), Pow(l.arg, Const(-1)))
}

func (l logarithm) dependsOn(v string) bool { return l.arg.dependsOn(v) }

func (l logarithm) collectVars(into map[string]struct{}) { l.arg.collectVars(into) }

func (x exponential) Eval(env Env) (float64, error) {
	a, err := x.arg.Eval(env)
	if err != nil {
		return 0, err
	}
	r := math.Exp(a)
	if !finite(r) {
		return 0, fmt.Errorf("exp(%g) overflowed: %w", a, dynamo.ErrMathDomain)
	}
	return r, nil
}

func (x exponential) String() string { return "exp(" + x.arg.String() + ")" }

func (x exponential) diff(v string) Expr { return Mul(x, x.arg.diff(v)) }

func (x exponential) dependsOn(v string) bool { return x.arg.dependsOn(v) }

func (x exponential) collectVars(into map[string]struct{}) { x.arg.collectVars(into) }
