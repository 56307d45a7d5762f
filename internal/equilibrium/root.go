package equilibrium

import (
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/integrators"
	"gonum.org/v1/gonum/diff/fd"
)

// RootOptions bounds the scalar root finders. Zero values select defaults.
type RootOptions struct {
	Tol     float64
	MaxIter int
}

func (o RootOptions) withDefaults() RootOptions {
	if o.Tol <= 0 {
		o.Tol = 1e-12
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 100
	}
	return o
}

// FindRoot solves f(x) = 0 by damped Newton iteration from guess, with the
// derivative taken by central differences. A step that leaves the domain of
// f (NaN) or increases |f| is halved until it does not.
func FindRoot(f func(float64) float64, guess float64, opts RootOptions) (float64, error) {
	opts = opts.withDefaults()
	x := guess
	fx := f(x)
	if math.IsNaN(fx) {
		return 0, fmt.Errorf("initial guess %g outside domain: %w", guess, dynamo.ErrMathDomain)
	}
	settings := &fd.Settings{Formula: fd.Central}

	for i := 0; i < opts.MaxIter; i++ {
		if math.Abs(fx) <= opts.Tol {
			return x, nil
		}
		d := fd.Derivative(f, x, settings)
		if d == 0 || math.IsNaN(d) {
			return 0, fmt.Errorf("zero derivative at x = %g (iteration %d): %w", x, i, dynamo.ErrConvergence)
		}
		step := -fx / d

		accepted := false
		for k := 0; k < 50; k++ {
			xn := x + step
			fn := f(xn)
			if !math.IsNaN(fn) && !math.IsInf(fn, 0) && math.Abs(fn) < math.Abs(fx) {
				x, fx = xn, fn
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			if math.Abs(fx) <= math.Sqrt(opts.Tol) {
				return x, nil
			}
			return 0, fmt.Errorf("stalled at x = %g, f = %g (iteration %d): %w", x, fx, i, dynamo.ErrConvergence)
		}
	}
	if math.Abs(fx) <= math.Sqrt(opts.Tol) {
		return x, nil
	}
	return 0, fmt.Errorf("no root within %d iterations from %g: %w", opts.MaxIter, guess, dynamo.ErrConvergence)
}

// Bisect finds a root of f in [lo, hi]; f(lo) and f(hi) must differ in sign.
func Bisect(f func(float64) float64, lo, hi float64, opts RootOptions) (float64, error) {
	opts = opts.withDefaults()
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, nil
	}
	if fhi == 0 {
		return hi, nil
	}
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, fmt.Errorf("interval [%g, %g] does not bracket a root: %w", lo, hi, dynamo.ErrDegenerateInput)
	}
	for i := 0; i < 200; i++ {
		mid := lo + (hi-lo)/2
		fm := f(mid)
		if fm == 0 || (hi-lo)/2 < opts.Tol*(1+math.Abs(mid)) {
			return mid, nil
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2, nil
}

// Brackets returns consecutive grid intervals across which f changes sign.
func Brackets(f func(float64) float64, grid []float64) [][2]float64 {
	var out [][2]float64
	prev := math.NaN()
	for i, x := range grid {
		fx := f(x)
		if i > 0 && !math.IsNaN(prev) && !math.IsNaN(fx) && (prev < 0) != (fx < 0) {
			out = append(out, [2]float64{grid[i-1], x})
		}
		prev = fx
	}
	return out
}

func defaultScan() []float64 { return integrators.Linspace(1e-3, 20, 2000) }
