package equilibrium

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/integrators"
)

func TestLinearEquilibrium(t *testing.T) {
	for _, b := range []float64{0.2, 0.5, 0.9} {
		c := Linear{B: b, C: 0.1}
		pts, err := c.Equilibria()
		if err != nil {
			t.Fatal(err)
		}
		want := 0.1 / (1 - b)
		if len(pts) != 1 || pts[0] != want {
			t.Errorf("b=%g: expected %v, got %v", b, want, pts)
		}
	}

	pts, _ := Linear{B: 0.2, C: 0.1}.Equilibria()
	if pts[0] != 0.125 {
		t.Errorf("expected 0.125, got %v", pts[0])
	}
}

func TestQuadraticEquilibria(t *testing.T) {
	q := Quadratic{B: -0.5, C: 2*math.Sqrt(-0.5*0) + 3, D: 0}
	pts, err := q.Equilibria()
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(pts))
	}
	for _, x := range pts {
		if r := q.B*x*x + (q.C-1)*x + q.D; math.Abs(r) > 1e-9 {
			t.Errorf("root %g leaves residual %g", x, r)
		}
	}
	if math.Abs(pts[1]-4) > 1e-12 {
		t.Errorf("expected nonzero root 4, got %g", pts[1])
	}
}

func TestLogarithmicEquilibrium(t *testing.T) {
	l := Logarithmic{B: -2, C: 0.5, Guess: 0.1}
	pts, err := l.Equilibria()
	if err != nil {
		t.Fatalf("root finding failed: %v", err)
	}
	x := pts[0]
	if math.Abs(-2*math.Log(0.5*x)-x) > 1e-9 {
		t.Errorf("x = %g does not satisfy x = b ln(cx)", x)
	}
	if math.Abs(x-1.135) > 0.01 {
		t.Errorf("expected root near 1.135, got %g", x)
	}
}

func TestExponentialEquilibrium(t *testing.T) {
	pts, err := Exponential{B: 1, C: 0}.Equilibria()
	if err != nil {
		t.Fatal(err)
	}
	// x = e^-x
	const omega = 0.5671432904097838
	if len(pts) != 1 || math.Abs(pts[0]-omega) > 1e-9 {
		t.Errorf("expected [%g], got %v", omega, pts)
	}
}

func TestFindRootErrors(t *testing.T) {
	_, err := FindRoot(func(x float64) float64 { return math.Log(x) }, -1, RootOptions{})
	if !errors.Is(err, dynamo.ErrMathDomain) {
		t.Errorf("expected ErrMathDomain, got %v", err)
	}

	_, err = FindRoot(func(x float64) float64 { return x*x + 1 }, 0.5, RootOptions{})
	if !errors.Is(err, dynamo.ErrConvergence) {
		t.Errorf("expected ErrConvergence, got %v", err)
	}
}

func TestBisect(t *testing.T) {
	r, err := Bisect(func(x float64) float64 { return x*x - 2 }, 0, 2, RootOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-math.Sqrt2) > 1e-10 {
		t.Errorf("expected sqrt(2), got %g", r)
	}

	if _, err := Bisect(func(x float64) float64 { return x*x + 1 }, 0, 2, RootOptions{}); !errors.Is(err, dynamo.ErrDegenerateInput) {
		t.Errorf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestDiagramCrossings(t *testing.T) {
	grid := integrators.Linspace(0.01, 20, 1000)
	d := Linear{B: 0.2, C: 0.1}.Diagram(grid)
	if len(d.Curves) != 2 {
		t.Fatalf("expected 2 curves, got %d", len(d.Curves))
	}
	xs := Crossings(d)
	if len(xs) != 1 || math.Abs(xs[0]-0.125) > 1e-3 {
		t.Errorf("expected one crossing near 0.125, got %v", xs)
	}
}

func TestLineFamily(t *testing.T) {
	grid := integrators.Linspace(0.01, 5, 1000)
	d := LineFamily([]float64{-0.004738, -0.35, 0.05}, 0, grid)
	if len(d.Curves) != 4 {
		t.Fatalf("expected 3 lines and -ln(x), got %d curves", len(d.Curves))
	}
	if d.Curves[3].Label != "-ln(x)" {
		t.Errorf("unexpected last label %q", d.Curves[3].Label)
	}
}

func TestTrajectoriesApproachEquilibrium(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		x0   float64
		want float64
		tol  float64
	}{
		{"linear", Linear{B: 0.2, C: 0.1}, 0.1, 0.125, 1e-4},
		{"quadratic", Quadratic{B: -0.5, C: 3, D: 0}, 0.01, 4, 2e-3},
		{"exponential", Exponential{B: 1, C: 0}, 0.1, 0.5671432904097838, 1e-4},
	}

	times := integrators.Linspace(0.01, 20, 200)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trs, err := Trajectories(tt.c, tt.x0, []float64{0.5, 1, 1.5}, times, integrators.NewRK45(), dynamo.DefaultConfig())
			if err != nil {
				t.Fatalf("integration failed: %v", err)
			}
			for _, tr := range trs {
				last := tr.X[len(tr.X)-1]
				if math.Abs(last-tt.want) > tt.tol {
					t.Errorf("a=%g: expected x(T) near %g, got %g", tr.Rate, tt.want, last)
				}
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	s := Settings{
		X0:    0.01,
		Rates: []float64{0.5, 1},
		Times: integrators.Linspace(0.1, 14, 100),
		Grid:  integrators.Linspace(0.1, 14, 500),
	}
	a, err := Analyze(Logarithmic{B: -2, C: 0.5, Guess: 0.1}, s)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if a.Case != "log" || len(a.Points) != 1 || len(a.Trajectories) != 2 {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if len(a.Crossings) != 1 || math.Abs(a.Crossings[0]-a.Points[0].X) > 0.05 {
		t.Errorf("diagram crossing %v disagrees with root %g", a.Crossings, a.Points[0].X)
	}
}
