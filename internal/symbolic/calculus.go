package symbolic

// Diff returns the partial derivative de/dv.
func Diff(e Expr, v string) Expr {
	if !e.dependsOn(v) {
		return Const(0)
	}
	return e.diff(v)
}

// Gradient returns (de/dv1, ..., de/dvn).
func Gradient(e Expr, vars []string) []Expr {
	g := make([]Expr, len(vars))
	for i, v := range vars {
		g[i] = Diff(e, v)
	}
	return g
}

// Jacobian returns J[i][j] = d fs[i] / d vars[j].
func Jacobian(fs []Expr, vars []string) [][]Expr {
	j := make([][]Expr, len(fs))
	for i, f := range fs {
		j[i] = Gradient(f, vars)
	}
	return j
}

// Hessian returns the matrix of second partials of e. Mixed partials are
// derived once and mirrored.
func Hessian(e Expr, vars []string) [][]Expr {
	grad := Gradient(e, vars)
	n := len(vars)
	h := make([][]Expr, n)
	for i := range h {
		h[i] = make([]Expr, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := Diff(grad[i], vars[j])
			h[i][j] = d
			h[j][i] = d
		}
	}
	return h
}

// EvalVector evaluates every expression in es.
func EvalVector(es []Expr, env Env) ([]float64, error) {
	out := make([]float64, len(es))
	for i, e := range es {
		v, err := e.Eval(env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EvalMatrix evaluates a matrix of expressions into row-major storage.
func EvalMatrix(m [][]Expr, env Env) ([]float64, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make([]float64, 0, len(m)*len(m[0]))
	for _, row := range m {
		vals, err := EvalVector(row, env)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// Bind builds an Env from parallel name and value slices.
func Bind(names []string, values []float64) Env {
	env := make(Env, len(names))
	for i, n := range names {
		env[n] = values[i]
	}
	return env
}
