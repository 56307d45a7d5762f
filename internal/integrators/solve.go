package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Solve integrates dyn from y0 at times[0] and returns the state at every
// requested time point. Steps are clipped so that each time point is hit
// exactly. Adaptive integrators are driven by their error estimate when
// cfg.Adaptive is set; any other integrator takes fixed steps of cfg.Dt.
//
// times must be strictly increasing. The first returned state is a copy of y0.
func Solve(dyn dynamo.System, y0 dynamo.State, times []float64, integ dynamo.Integrator, cfg dynamo.Config) ([]dynamo.State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("no time points: %w", dynamo.ErrDegenerateInput)
	}
	if len(y0) != dyn.StateDim() {
		return nil, fmt.Errorf("initial state has %d components, system expects %d: %w",
			len(y0), dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("time points must be strictly increasing (t[%d]=%g, t[%d]=%g): %w",
				i-1, times[i-1], i, times[i], dynamo.ErrDegenerateInput)
		}
	}
	if !y0.IsValid() {
		return nil, &dynamo.SimulationError{Time: times[0], State: y0.Clone(), Wrapped: dynamo.ErrUnstable}
	}

	adaptive, isAdaptive := integ.(dynamo.AdaptiveIntegrator)
	isAdaptive = isAdaptive && cfg.Adaptive

	out := make([]dynamo.State, len(times))
	out[0] = y0.Clone()

	x := y0.Clone()
	t := times[0]
	dt := cfg.Dt
	steps := 0

	for i := 1; i < len(times); i++ {
		target := times[i]

		for t < target {
			if steps >= cfg.MaxSteps {
				return nil, &dynamo.SimulationError{
					Step: steps, Time: t, State: x.Clone(),
					Wrapped: fmt.Errorf("step budget of %d exhausted: %w", cfg.MaxSteps, dynamo.ErrStepTooSmall),
				}
			}

			remaining := target - t
			h := dt
			last := false
			if h >= remaining {
				h = remaining
				last = true
			}

			var newX dynamo.State
			if isAdaptive {
				var next float64
				var err error
				newX, next, err = adaptive.StepAdaptive(dyn, x, t, h, cfg.Tolerance)
				if errors.Is(err, dynamo.ErrStepRejected) {
					steps++
					dt = next
					if dt < cfg.MinDt {
						cause := dynamo.ErrStepTooSmall
						if !newX.IsValid() {
							cause = dynamo.ErrUnstable
						}
						return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: cause}
					}
					continue
				}
				if err != nil {
					return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: err}
				}
				if !last || next < dt {
					dt = math.Min(math.Max(next, cfg.MinDt), cfg.MaxDt)
				}
			} else {
				newX = integ.Step(dyn, x, t, h)
			}
			steps++

			if !newX.IsValid() {
				return nil, &dynamo.SimulationError{Step: steps, Time: t + h, State: newX, Wrapped: dynamo.ErrUnstable}
			}

			x = newX
			if last {
				t = target
			} else {
				t += h
			}
		}

		out[i] = x.Clone()
	}

	return out, nil
}

// SolveScalar integrates a scalar ODE and returns y at each time point.
func SolveScalar(f dynamo.Func, y0 float64, times []float64, integ dynamo.Integrator, cfg dynamo.Config) ([]float64, error) {
	states, err := Solve(f, dynamo.State{y0}, times, integ, cfg)
	if err != nil {
		return nil, err
	}
	ys := make([]float64, len(states))
	for i, s := range states {
		ys[i] = s.Scalar()
	}
	return ys, nil
}

// Linspace returns n evenly spaced points over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, stop)
}
