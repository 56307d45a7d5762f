package equilibrium

import (
	"fmt"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/integrators"
)

// Trajectory is the solution of the case's ODE for one decay rate.
type Trajectory struct {
	Rate float64   `json:"rate"`
	X    []float64 `json:"x"`
}

// Trajectories integrates dx/dt = -a·x·ln(x/g(x)) from x0 over times for
// every rate a.
func Trajectories(c Case, x0 float64, rates, times []float64, integ dynamo.Integrator, cfg dynamo.Config) ([]Trajectory, error) {
	out := make([]Trajectory, 0, len(rates))
	for _, a := range rates {
		xs, err := integrators.SolveScalar(Rate(c, a), x0, times, integ, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s case, a = %g: %w", c.Name(), a, err)
		}
		out = append(out, Trajectory{Rate: a, X: xs})
	}
	return out, nil
}

// Settings controls the illustrative outputs of Analyze.
type Settings struct {
	X0         float64
	Rates      []float64
	Times      []float64
	Grid       []float64
	Integrator dynamo.Integrator
	Solver     dynamo.Config
}

// Analysis bundles everything computed for one case.
type Analysis struct {
	Case         string                    `json:"case"`
	Points       []growth.EquilibriumPoint `json:"points"`
	Diagram      Diagram                   `json:"diagram"`
	Crossings    []float64                 `json:"crossings,omitempty"`
	Times        []float64                 `json:"times"`
	Trajectories []Trajectory              `json:"trajectories"`
}

// Analyze locates the equilibria of c, tabulates its diagram and integrates
// its trajectories.
func Analyze(c Case, s Settings) (*Analysis, error) {
	roots, err := c.Equilibria()
	if err != nil {
		return nil, err
	}
	a := &Analysis{Case: c.Name(), Times: s.Times}
	for _, r := range roots {
		a.Points = append(a.Points, growth.EquilibriumPoint{Case: c.Name(), X: r})
	}
	if len(s.Grid) > 0 {
		a.Diagram = c.Diagram(s.Grid)
		a.Crossings = Crossings(a.Diagram)
	}
	if len(s.Rates) > 0 {
		integ := s.Integrator
		if integ == nil {
			integ = integrators.NewRK45()
		}
		cfg := s.Solver
		if cfg == (dynamo.Config{}) {
			cfg = dynamo.DefaultConfig()
		}
		a.Trajectories, err = Trajectories(c, s.X0, s.Rates, s.Times, integ, cfg)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}
