package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/integrators"
	"github.com/san-kum/gompertz/internal/odefit"
)

// FitFunc fits one ODE model to a series from p0.
type FitFunc func(f *odefit.Fitter, s growth.Series, p0 []float64) (*growth.FitResult, error)

// ModelEntry is a registered model with its starting point selector.
type ModelEntry struct {
	Fit   FitFunc
	Guess func(g odefit.Guesses) []float64
}

type Registry struct {
	models      map[string]ModelEntry
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]ModelEntry),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["implicit"] = ModelEntry{
		Fit:   (*odefit.Fitter).FitImplicit,
		Guess: func(g odefit.Guesses) []float64 { return g.Implicit },
	}
	r.models["explicit"] = ModelEntry{
		Fit:   (*odefit.Fitter).FitExplicit,
		Guess: func(g odefit.Guesses) []float64 { return g.Explicit },
	}
	r.models["implicit-log10"] = ModelEntry{
		Fit:   (*odefit.Fitter).FitImplicitLog,
		Guess: func(g odefit.Guesses) []float64 { return g.ImplicitLog },
	}
	r.models["explicit-log10"] = ModelEntry{
		Fit:   (*odefit.Fitter).FitExplicitLog,
		Guess: func(g odefit.Guesses) []float64 { return g.ExplicitLog },
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetModel(name string) (ModelEntry, error) {
	m, ok := r.models[name]
	if !ok {
		return ModelEntry{}, fmt.Errorf("unknown model: %s (have %v)", name, r.ListModels())
	}
	return m, nil
}

// GetIntegrator returns a fresh integrator. Integrators keep scratch space,
// so concurrent fits must not share one.
func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (have %v)", name, r.ListIntegrators())
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
