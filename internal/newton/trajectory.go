package newton

import (
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/integrators"
)

// GrowthODE is dx/dt = -a·x·ln(x·e^(b·x)), the growth law implied by a fitted
// rate model.
func GrowthODE(a, b float64) dynamo.Func {
	return func(x, _ float64) float64 {
		if x <= 0 {
			return math.NaN()
		}
		return -a * x * (math.Log(x) + b*x)
	}
}

// Trajectory integrates GrowthODE with the fitted (a, b) from x0 at times[0].
func Trajectory(p growth.ParameterVector, x0 float64, times []float64, integ dynamo.Integrator, cfg dynamo.Config) ([]float64, error) {
	a, okA := p.Get(ParamA)
	b, okB := p.Get(ParamB)
	if !okA || !okB {
		return nil, fmt.Errorf("trajectory needs parameters %s and %s, have %v: %w", ParamA, ParamB, p.Names, dynamo.ErrDimensionMismatch)
	}
	return integrators.SolveScalar(GrowthODE(a, b), x0, times, integ, cfg)
}
