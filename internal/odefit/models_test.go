package odefit

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/integrators"
)

func TestExplicitPredict(t *testing.T) {
	m, err := NewExplicit(1000, 50)
	if err != nil {
		t.Fatal(err)
	}
	y, err := m.Predict([]float64{0, 1e4}, []float64{0.2})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(y[0]-50) > 1e-9 {
		t.Errorf("expected x0 at t=0, got %g", y[0])
	}
	if math.Abs(y[1]-1000) > 1e-9 {
		t.Errorf("expected K at large t, got %g", y[1])
	}

	l, _ := NewExplicitLog(1000, 50)
	z, err := l.Predict([]float64{0, 1e4}, []float64{0.2})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(z[0]-math.Log10(50)) > 1e-12 || math.Abs(z[1]-3) > 1e-9 {
		t.Errorf("unexpected log predictions %v", z)
	}
}

func TestExplicitUsesAbsoluteTime(t *testing.T) {
	m, _ := NewExplicit(1000, 50)
	y, err := m.Predict([]float64{5, 6}, []float64{0.2})
	if err != nil {
		t.Fatal(err)
	}
	// A series starting at t = 5 is not anchored at x0: the curve has
	// already moved towards K by then.
	e := math.Exp(-0.2 * 5)
	want := math.Pow(1000, 1-e) * math.Pow(50, e)
	if math.Abs(y[0]-want) > 1e-9 || math.Abs(y[0]-50) < 1 {
		t.Errorf("y(5) = %g, want %g", y[0], want)
	}
}

func TestExplicitDegenerate(t *testing.T) {
	if _, err := NewExplicit(5, 5); !errors.Is(err, dynamo.ErrDegenerateInput) {
		t.Errorf("expected ErrDegenerateInput, got %v", err)
	}

	s, _ := growth.NewSeries("flat", []float64{0, 1, 2, 3}, []float64{5, 7, 6, 5})
	if _, err := NewFitter(nil).FitExplicit(s, DefaultExplicitP0); !errors.Is(err, dynamo.ErrDegenerateInput) {
		t.Errorf("expected ErrDegenerateInput from K == x0, got %v", err)
	}
}

func TestImplicitAtZeroBIsGompertz(t *testing.T) {
	const r, y0 = 0.3, 0.2
	times := integrators.Linspace(0, 10, 21)

	imp := NewImplicit(y0, DefaultSolver())
	got, err := imp.Predict(times, []float64{r, 0})
	if err != nil {
		t.Fatalf("integration failed: %v", err)
	}
	exp, _ := NewExplicit(1, y0)
	want, _ := exp.Predict(times, []float64{r})

	for i := range times {
		if math.Abs(got[i]-want[i]) > 1e-8 {
			t.Errorf("t=%g: implicit %g, closed form %g", times[i], got[i], want[i])
		}
	}
}

func TestImplicitLogMatchesImplicit(t *testing.T) {
	times := integrators.Linspace(0, 20, 11)
	p := []float64{-0.05, -0.007}

	y, err := NewImplicit(50, DefaultSolver()).Predict(times, p)
	if err != nil {
		t.Fatal(err)
	}
	logModel, err := NewImplicitLog(50, DefaultSolver())
	if err != nil {
		t.Fatal(err)
	}
	z, err := logModel.Predict(times, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := range times {
		if math.Abs(z[i]-math.Log10(y[i])) > 1e-8 {
			t.Errorf("t=%g: log model %g, log10 of implicit %g", times[i], z[i], math.Log10(y[i]))
		}
	}
}

func TestImplicitIntegrationFailure(t *testing.T) {
	m := NewImplicit(-1, DefaultSolver())
	_, err := m.Predict([]float64{0, 1, 2}, []float64{0.1, 0})
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
	var se *dynamo.SimulationError
	if !errors.As(err, &se) {
		t.Errorf("expected SimulationError, got %T", err)
	}

	_, err = NewFitter(nil).Fit(m, []float64{0, 1, 2, 3}, []float64{1, 2, 3, 4}, []float64{0.1, 0})
	var fe *dynamo.FitError
	if !errors.As(err, &fe) {
		t.Errorf("expected FitError, got %v", err)
	}
}

func TestFitInputChecks(t *testing.T) {
	m, _ := NewExplicit(10, 1)
	f := NewFitter(nil)

	tests := []struct {
		name string
		t, y []float64
		p0   []float64
		want error
	}{
		{"length mismatch", []float64{0, 1, 2}, []float64{1, 2}, []float64{0.1}, dynamo.ErrDimensionMismatch},
		{"wrong guess", []float64{0, 1, 2}, []float64{1, 2, 3}, []float64{0.1, 0.2}, dynamo.ErrDimensionMismatch},
		{"too few points", []float64{0, 1}, []float64{1, 2}, []float64{0.1}, dynamo.ErrDegenerateInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Fit(m, tt.t, tt.y, tt.p0); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAICPenalty(t *testing.T) {
	if PenaltyFixed.k(1) != 2 || PenaltyFixed.k(2) != 2 {
		t.Error("fixed penalty must charge k = 2")
	}
	if PenaltyCount.k(1) != 2 || PenaltyCount.k(2) != 3 {
		t.Error("count penalty must charge parameters plus one")
	}
}
