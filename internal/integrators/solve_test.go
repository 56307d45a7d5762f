package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gompertz/internal/dynamo"
)

func TestSolveHitsEveryTimePoint(t *testing.T) {
	decay := dynamo.Func(func(y, _ float64) float64 { return -0.5 * y })
	times := []float64{0, 0.3, 1.0, 2.5, 7.0}

	ys, err := SolveScalar(decay, 2.0, times, NewRK45(), dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if len(ys) != len(times) {
		t.Fatalf("expected %d values, got %d", len(times), len(ys))
	}

	for i, tt := range times {
		expected := 2.0 * math.Exp(-0.5*tt)
		if math.Abs(ys[i]-expected) > 1e-7 {
			t.Errorf("t=%.1f: expected %.9f, got %.9f", tt, expected, ys[i])
		}
	}
}

func TestSolveGompertzClosedForm(t *testing.T) {
	r, k, x0 := 0.3, 50.0, 2.0
	gompertz := dynamo.Func(func(y, _ float64) float64 { return -r * y * math.Log(y/k) })
	times := Linspace(0, 20, 41)

	ys, err := SolveScalar(gompertz, x0, times, NewRK45(), dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	for i, tt := range times {
		expected := k * math.Exp(math.Log(x0/k)*math.Exp(-r*tt))
		if math.Abs(ys[i]-expected)/expected > 1e-6 {
			t.Errorf("t=%.1f: expected %.6f, got %.6f", tt, expected, ys[i])
		}
	}
}

func TestSolveFixedStep(t *testing.T) {
	decay := dynamo.Func(func(y, _ float64) float64 { return -y })
	cfg := dynamo.DefaultConfig()
	cfg.Adaptive = false
	cfg.Dt = 0.001

	ys, err := SolveScalar(decay, 1.0, []float64{0, 1}, NewRK4(), cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if math.Abs(ys[1]-math.Exp(-1)) > 1e-9 {
		t.Errorf("expected %.10f, got %.10f", math.Exp(-1), ys[1])
	}
}

func TestSolveInvalidInput(t *testing.T) {
	decay := dynamo.Func(func(y, _ float64) float64 { return -y })
	cfg := dynamo.DefaultConfig()

	tests := []struct {
		name  string
		times []float64
		y0    dynamo.State
		want  error
	}{
		{"no times", nil, dynamo.State{1}, dynamo.ErrDegenerateInput},
		{"decreasing times", []float64{0, 2, 1}, dynamo.State{1}, dynamo.ErrDegenerateInput},
		{"repeated time", []float64{0, 1, 1}, dynamo.State{1}, dynamo.ErrDegenerateInput},
		{"wrong dimension", []float64{0, 1}, dynamo.State{1, 2}, dynamo.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(decay, tt.y0, tt.times, NewRK45(), cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSolveBlowUpIsReported(t *testing.T) {
	// y' = y^2 escapes to infinity at t = 1.
	blowUp := dynamo.Func(func(y, _ float64) float64 { return y * y })

	_, err := SolveScalar(blowUp, 1.0, []float64{0, 2}, NewRK45(), dynamo.DefaultConfig())
	if err == nil {
		t.Fatal("expected failure past the singularity")
	}

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	if simErr.Time > 1.0+1e-6 {
		t.Errorf("failure reported after the singularity: t=%f", simErr.Time)
	}
}

func TestSolveDomainFailure(t *testing.T) {
	// ln of a negative state has no real value.
	bad := dynamo.Func(func(y, _ float64) float64 { return -y * math.Log(y) })

	_, err := SolveScalar(bad, -1, []float64{0, 1}, NewRK45(), dynamo.DefaultConfig())
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("expected ErrUnstable, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	xs := Linspace(0.01, 20, 1000)
	if len(xs) != 1000 {
		t.Fatalf("expected 1000 points, got %d", len(xs))
	}
	if xs[0] != 0.01 || xs[999] != 20 {
		t.Errorf("unexpected endpoints %f, %f", xs[0], xs[999])
	}
	if got := Linspace(3, 4, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("expected [3], got %v", got)
	}
}
