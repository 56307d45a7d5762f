package equilibrium

import (
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
)

// Case is one growth-limiting function family g(x) with fixed coefficients.
// Its equilibria are the sizes where x = g(x).
type Case interface {
	Name() string
	// G evaluates the growth-limiting function.
	G(x float64) float64
	Equilibria() ([]float64, error)
	// Diagram tabulates the two sides of the equilibrium condition over grid.
	Diagram(grid []float64) Diagram
}

// Curve is one labelled series over a diagram grid. Points outside the
// function's domain are NaN.
type Curve struct {
	Label string    `json:"label"`
	Y     []float64 `json:"y"`
}

// Diagram holds the curves whose intersections are the equilibria.
type Diagram struct {
	X      []float64 `json:"x"`
	Curves []Curve   `json:"curves"`
}

func tabulate(label string, grid []float64, f func(float64) float64) Curve {
	y := make([]float64, len(grid))
	for i, x := range grid {
		y[i] = f(x)
	}
	return Curve{Label: label, Y: y}
}

func logOrNaN(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return math.Log(v)
}

// Linear is g(x) = bx + c with 0 < b < 1.
type Linear struct {
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

func (l Linear) Name() string        { return "linear" }
func (l Linear) G(x float64) float64 { return l.B*x + l.C }

func (l Linear) Equilibria() ([]float64, error) {
	if l.B == 1 {
		return nil, fmt.Errorf("linear case with b = 1 has no isolated equilibrium: %w", dynamo.ErrDegenerateInput)
	}
	return []float64{l.C / (1 - l.B)}, nil
}

func (l Linear) Diagram(grid []float64) Diagram {
	return Diagram{X: grid, Curves: []Curve{
		tabulate("ln(x)", grid, logOrNaN),
		tabulate(fmt.Sprintf("ln(%gx+%g)", l.B, l.C), grid, func(x float64) float64 { return logOrNaN(l.G(x)) }),
	}}
}

// Quadratic is g(x) = bx² + cx + d.
type Quadratic struct {
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
}

func (q Quadratic) Name() string        { return "quadratic" }
func (q Quadratic) G(x float64) float64 { return q.B*x*x + q.C*x + q.D }

// Equilibria returns both roots of bx² + (c-1)x + d = 0, "+" root first.
// A negative discriminant yields NaN roots; the coefficients are not checked.
func (q Quadratic) Equilibria() ([]float64, error) {
	if q.B == 0 {
		return nil, fmt.Errorf("quadratic case with b = 0: %w", dynamo.ErrDegenerateInput)
	}
	p := q.C - 1
	disc := math.Sqrt(p*p - 4*q.B*q.D)
	return []float64{(-p + disc) / (2 * q.B), (-p - disc) / (2 * q.B)}, nil
}

func (q Quadratic) Diagram(grid []float64) Diagram {
	return Diagram{X: grid, Curves: []Curve{
		tabulate("ln(x)", grid, logOrNaN),
		tabulate(fmt.Sprintf("ln(%gx^2+%gx+%g)", q.B, q.C, q.D), grid, func(x float64) float64 { return logOrNaN(q.G(x)) }),
	}}
}

// Logarithmic is g(x) = b·ln(cx), solved numerically from Guess.
type Logarithmic struct {
	B     float64 `yaml:"b"`
	C     float64 `yaml:"c"`
	Guess float64 `yaml:"guess"`
}

func (l Logarithmic) Name() string { return "log" }

// G is ln((cx)^b), which equals b·ln(cx) wherever cx > 0.
func (l Logarithmic) G(x float64) float64 { return logOrNaN(math.Pow(l.C*x, l.B)) }

func (l Logarithmic) Equilibria() ([]float64, error) {
	root, err := FindRoot(func(x float64) float64 { return l.G(x) - x }, l.Guess, RootOptions{})
	if err != nil {
		return nil, fmt.Errorf("log case from guess %g: %w", l.Guess, err)
	}
	return []float64{root}, nil
}

func (l Logarithmic) Diagram(grid []float64) Diagram {
	return Diagram{X: grid, Curves: []Curve{
		tabulate("x", grid, func(x float64) float64 { return x }),
		tabulate(fmt.Sprintf("%gln(%gx)", l.B, l.C), grid, l.G),
	}}
}

// Exponential is g(x) = e^-(bx+c). Its equilibria are the intersections of
// the line bx + c with -ln(x), located by scanning Scan for sign changes.
type Exponential struct {
	B    float64   `yaml:"b"`
	C    float64   `yaml:"c"`
	Scan []float64 `yaml:"-"`
}

func (e Exponential) Name() string        { return "exponential" }
func (e Exponential) G(x float64) float64 { return math.Exp(-(e.B*x + e.C)) }

func (e Exponential) Equilibria() ([]float64, error) {
	grid := e.Scan
	if len(grid) == 0 {
		grid = defaultScan()
	}
	h := func(x float64) float64 { return e.B*x + e.C + logOrNaN(x) }
	var roots []float64
	for _, br := range Brackets(h, grid) {
		r, err := Bisect(h, br[0], br[1], RootOptions{})
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	return roots, nil
}

func (e Exponential) Diagram(grid []float64) Diagram {
	return LineFamily([]float64{e.B}, e.C, grid)
}

// LineFamily tabulates bx + c for every slope b against -ln(x).
func LineFamily(slopes []float64, c float64, grid []float64) Diagram {
	d := Diagram{X: grid}
	for _, b := range slopes {
		b := b
		d.Curves = append(d.Curves, tabulate(fmt.Sprintf("b = %.3f", b), grid, func(x float64) float64 { return b*x + c }))
	}
	d.Curves = append(d.Curves, tabulate("-ln(x)", grid, func(x float64) float64 { return -logOrNaN(x) }))
	return d
}

// Crossings returns the interpolated x positions where the first two curves
// of d intersect.
func Crossings(d Diagram) []float64 {
	if len(d.Curves) < 2 {
		return nil
	}
	a, b := d.Curves[0].Y, d.Curves[1].Y
	var out []float64
	for i := 0; i+1 < len(d.X); i++ {
		f0, f1 := a[i]-b[i], a[i+1]-b[i+1]
		if math.IsNaN(f0) || math.IsNaN(f1) {
			continue
		}
		if f0 == 0 {
			out = append(out, d.X[i])
			continue
		}
		if f0*f1 < 0 {
			out = append(out, d.X[i]-f0*(d.X[i+1]-d.X[i])/(f1-f0))
		}
	}
	return out
}

// Rate returns the right-hand side dx/dt = -a·x·ln(x/g(x)).
func Rate(c Case, a float64) dynamo.Func {
	return func(x, _ float64) float64 {
		return -a * x * logOrNaN(x/c.G(x))
	}
}
