package odefit

import (
	"fmt"

	"github.com/san-kum/gompertz/internal/growth"
)

// Initial guesses used when none are configured.
var (
	DefaultImplicitP0    = []float64{-0.05, -0.007}
	DefaultExplicitP0    = []float64{0.01}
	DefaultImplicitLogP0 = []float64{-0.05, -0.02}
	DefaultExplicitLogP0 = []float64{0}
)

// FitImplicit fits the implicit model to s, starting the ODE at the first
// observation.
func (f *Fitter) FitImplicit(s growth.Series, p0 []float64) (*growth.FitResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return f.Fit(NewImplicit(s.First(), f.Solver), s.Times(), s.Volumes(), p0)
}

// FitExplicit fits the rate of the closed-form model with K fixed to the last
// observation and x0 to the first.
func (f *Fitter) FitExplicit(s growth.Series, p0 []float64) (*growth.FitResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := NewExplicit(s.Last(), s.First())
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", s.Name, err)
	}
	return f.Fit(m, s.Times(), s.Volumes(), p0)
}

// FitImplicitLog fits the implicit model to log10 of the volumes.
func (f *Fitter) FitImplicitLog(s growth.Series, p0 []float64) (*growth.FitResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := NewImplicitLog(s.First(), f.Solver)
	if err != nil {
		return nil, err
	}
	return f.Fit(m, s.Times(), s.Log10().Volumes(), p0)
}

// FitExplicitLog fits the closed-form model to log10 of the volumes.
func (f *Fitter) FitExplicitLog(s growth.Series, p0 []float64) (*growth.FitResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := NewExplicitLog(s.Last(), s.First())
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", s.Name, err)
	}
	return f.Fit(m, s.Times(), s.Log10().Volumes(), p0)
}

// Guesses holds the starting points of the four fits.
type Guesses struct {
	Implicit    []float64
	Explicit    []float64
	ImplicitLog []float64
	ExplicitLog []float64
}

func DefaultGuesses() Guesses {
	return Guesses{
		Implicit:    DefaultImplicitP0,
		Explicit:    DefaultExplicitP0,
		ImplicitLog: DefaultImplicitLogP0,
		ExplicitLog: DefaultExplicitLogP0,
	}
}

// Comparison pairs the implicit and explicit fits on one scale.
type Comparison struct {
	Scale    string            `json:"scale"`
	Implicit *growth.FitResult `json:"implicit"`
	Explicit *growth.FitResult `json:"explicit"`
}

// Preferred returns the name of the model with the lower AIC.
func (c Comparison) Preferred() string {
	if c.Implicit.Stats.AIC <= c.Explicit.Stats.AIC {
		return c.Implicit.Model
	}
	return c.Explicit.Model
}

// Compare fits both models on the raw and on the log10 scale.
func (f *Fitter) Compare(s growth.Series, g Guesses) ([]Comparison, error) {
	imp, err := f.FitImplicit(s, g.Implicit)
	if err != nil {
		return nil, err
	}
	exp, err := f.FitExplicit(s, g.Explicit)
	if err != nil {
		return nil, err
	}
	impLog, err := f.FitImplicitLog(s, g.ImplicitLog)
	if err != nil {
		return nil, err
	}
	expLog, err := f.FitExplicitLog(s, g.ExplicitLog)
	if err != nil {
		return nil, err
	}
	return []Comparison{
		{Scale: "raw", Implicit: imp, Explicit: exp},
		{Scale: "log10", Implicit: impLog, Explicit: expLog},
	}, nil
}
