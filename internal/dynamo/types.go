package dynamo

import (
	"fmt"
	"math"
)

// State is the value of an ODE solution at one instant.
type State []float64

func (s State) Clone() State { return append(State(nil), s...) }

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Scalar returns the only component of a one-dimensional state.
func (s State) Scalar() float64 { return s[0] }

// System is an autonomous or time-dependent ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Func adapts a scalar right-hand side dy/dt = f(y, t) to a System.
type Func func(y, t float64) float64

func (f Func) Derive(x State, t float64) State { return State{f(x.Scalar(), t)} }
func (f Func) StateDim() int                   { return 1 }

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

// Config controls how a trajectory is integrated between requested time points.
type Config struct {
	Dt        float64
	Tolerance float64
	MaxDt     float64
	MinDt     float64
	MaxSteps  int
	Adaptive  bool
}

func DefaultConfig() Config {
	return Config{
		Dt:        1e-3,
		Tolerance: 1e-9,
		MaxDt:     1.0,
		MinDt:     1e-12,
		MaxSteps:  1_000_000,
		Adaptive:  true,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if c.MinDt <= 0 || c.MaxDt < c.MinDt {
		return fmt.Errorf("invalid step bounds [%g, %g]", c.MinDt, c.MaxDt)
	}
	return nil
}
