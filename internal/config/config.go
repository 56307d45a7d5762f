package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/gompertz/internal/equilibrium"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/integrators"
	"github.com/san-kum/gompertz/internal/odefit"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTolerance     = 1e-15
	DefaultMaxIterations = 100
	DefaultAlpha         = 0.05
	DefaultDt            = 0.01
	DefaultSolverTol     = 1e-9
	DefaultLMIterations  = 200
	DefaultCurvePoints   = 50
)

type Config struct {
	Equilibrium EquilibriumConfig `yaml:"equilibrium"`
	Data        DataConfig        `yaml:"data"`
	Newton      NewtonConfig      `yaml:"newton"`
	ODEFit      ODEFitConfig      `yaml:"odefit"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
}

// Grid is a linspace over [Start, Stop].
type Grid struct {
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
	Points int     `yaml:"points"`
}

func (g Grid) Values() []float64 { return integrators.Linspace(g.Start, g.Stop, g.Points) }

// CaseRun is the initial size and time horizon of one case's trajectories.
type CaseRun struct {
	X0    float64 `yaml:"x0"`
	Times Grid    `yaml:"times"`
}

type EquilibriumConfig struct {
	Rates       []float64               `yaml:"rates"`
	Linear      equilibrium.Linear      `yaml:"linear"`
	Quadratic   equilibrium.Quadratic   `yaml:"quadratic"`
	Log         equilibrium.Logarithmic `yaml:"log"`
	Exponential equilibrium.Exponential `yaml:"exponential"`
	LineFamily  []float64               `yaml:"line_family"`
	FamilyGrid  Grid                    `yaml:"family_grid"`
	Runs        map[string]CaseRun      `yaml:"runs"`
}

type SpecimenConfig struct {
	Name    string `yaml:"name"`
	File    string `yaml:"file"`
	Exclude []int  `yaml:"exclude,omitempty"`
}

type DataConfig struct {
	Dir       string           `yaml:"dir"`
	Specimens []SpecimenConfig `yaml:"specimens"`
}

type NewtonConfig struct {
	Guess           []float64 `yaml:"guess"`
	Tolerance       float64   `yaml:"tolerance"`
	MaxIterations   int       `yaml:"max_iterations"`
	IncludeSentinel bool      `yaml:"include_sentinel"`
	Alpha           float64   `yaml:"alpha"`
	// Search replaces Guess with the best point of a coarse grid.
	Search SearchConfig `yaml:"search"`
}

type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
	A       Grid `yaml:"a"`
	B       Grid `yaml:"b"`
}

type ODEFitConfig struct {
	Implicit     []float64 `yaml:"implicit_p0"`
	Explicit     []float64 `yaml:"explicit_p0"`
	ImplicitLog  []float64 `yaml:"implicit_log_p0"`
	ExplicitLog  []float64 `yaml:"explicit_log_p0"`
	Alpha        float64   `yaml:"alpha"`
	AICPenalty   string    `yaml:"aic_penalty"`
	Integrator   string    `yaml:"integrator"`
	Dt           float64   `yaml:"dt"`
	Tolerance    float64   `yaml:"tolerance"`
	LMIterations int       `yaml:"lm_iterations"`
	CurvePoints  int       `yaml:"curve_points"`
}

type OutputConfig struct {
	RunsDir     string `yaml:"runs_dir"`
	FigureDir   string `yaml:"figure_dir"`
	Figures     bool   `yaml:"figures"`
	Format      string `yaml:"format"`
	ChartWidth  int    `yaml:"chart_width"`
	ChartHeight int    `yaml:"chart_height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Equilibrium: EquilibriumConfig{
			Rates:       []float64{0.5, 1, 1.5},
			Linear:      equilibrium.Linear{B: 0.2, C: 0.1},
			Quadratic:   equilibrium.Quadratic{B: -0.5, C: 3, D: 0},
			Log:         equilibrium.Logarithmic{B: -2, C: 0.5, Guess: 0.1},
			Exponential: equilibrium.Exponential{B: 1, C: 0},
			LineFamily:  []float64{-0.004738, -0.35, 0.05},
			FamilyGrid:  Grid{Start: 0.01, Stop: 5, Points: 1000},
			Runs: map[string]CaseRun{
				"linear":      {X0: 0.1, Times: Grid{Start: 0.01, Stop: 20, Points: 1000}},
				"quadratic":   {X0: 0.01, Times: Grid{Start: 0.01, Stop: 20, Points: 10000}},
				"log":         {X0: 0.01, Times: Grid{Start: 0.1, Stop: 14, Points: 10000}},
				"exponential": {X0: 0.1, Times: Grid{Start: 0.01, Stop: 20, Points: 1000}},
			},
		},
		Data: DataConfig{
			Dir: "data",
			Specimens: []SpecimenConfig{
				{Name: "A", File: "A.csv", Exclude: []int{6}},
				{Name: "B", File: "B.csv"},
				{Name: "C", File: "C.csv"},
			},
		},
		Newton: NewtonConfig{
			Guess:           []float64{0.2, -0.001},
			Tolerance:       DefaultTolerance,
			MaxIterations:   DefaultMaxIterations,
			IncludeSentinel: true,
			Alpha:           DefaultAlpha,
			Search: SearchConfig{
				A: Grid{Start: 0.01, Stop: 1, Points: 25},
				B: Grid{Start: -0.01, Stop: 0.01, Points: 21},
			},
		},
		ODEFit: ODEFitConfig{
			Implicit:     append([]float64(nil), odefit.DefaultImplicitP0...),
			Explicit:     append([]float64(nil), odefit.DefaultExplicitP0...),
			ImplicitLog:  append([]float64(nil), odefit.DefaultImplicitLogP0...),
			ExplicitLog:  append([]float64(nil), odefit.DefaultExplicitLogP0...),
			Alpha:        DefaultAlpha,
			AICPenalty:   string(odefit.PenaltyFixed),
			Integrator:   "rk4",
			Dt:           DefaultDt,
			Tolerance:    DefaultSolverTol,
			LMIterations: DefaultLMIterations,
			CurvePoints:  DefaultCurvePoints,
		},
		Output: OutputConfig{
			RunsDir:     "runs",
			FigureDir:   "figures",
			Figures:     true,
			Format:      "png",
			ChartWidth:  60,
			ChartHeight: 12,
		},
		Log: LogConfig{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Newton.Guess) != 2 {
		return fmt.Errorf("newton.guess needs 2 values, has %d", len(c.Newton.Guess))
	}
	if c.Newton.Tolerance <= 0 || c.Newton.MaxIterations <= 0 {
		return fmt.Errorf("newton tolerance and max_iterations must be positive")
	}
	if c.Newton.Search.Enabled && (c.Newton.Search.A.Points < 1 || c.Newton.Search.B.Points < 1) {
		return fmt.Errorf("newton.search grids need at least one point")
	}
	for _, a := range []float64{c.Newton.Alpha, c.ODEFit.Alpha} {
		if !(a > 0 && a < 1) {
			return fmt.Errorf("alpha %g outside (0, 1)", a)
		}
	}
	switch odefit.AICPenalty(c.ODEFit.AICPenalty) {
	case odefit.PenaltyFixed, odefit.PenaltyCount:
	default:
		return fmt.Errorf("odefit.aic_penalty must be %q or %q, got %q",
			odefit.PenaltyFixed, odefit.PenaltyCount, c.ODEFit.AICPenalty)
	}
	if c.ODEFit.Dt <= 0 || c.ODEFit.Tolerance <= 0 {
		return fmt.Errorf("odefit dt and tolerance must be positive")
	}
	switch c.Output.Format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("output.format must be png, svg or pdf, got %q", c.Output.Format)
	}
	seen := make(map[string]bool)
	for _, s := range c.Data.Specimens {
		if s.Name == "" || s.File == "" {
			return fmt.Errorf("specimen entries need a name and a file")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate specimen %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Specimen resolves a configured specimen against the data directory.
func (c *Config) Specimen(name string) (growth.Specimen, error) {
	for _, s := range c.Data.Specimens {
		if s.Name == name {
			path := s.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(c.Data.Dir, path)
			}
			return growth.Specimen{Name: s.Name, Path: path, Exclude: s.Exclude}, nil
		}
	}
	return growth.Specimen{}, fmt.Errorf("unknown specimen %q (have %v)", name, c.SpecimenNames())
}

func (c *Config) SpecimenNames() []string {
	names := make([]string, len(c.Data.Specimens))
	for i, s := range c.Data.Specimens {
		names[i] = s.Name
	}
	return names
}

// Case returns the configured growth-limiting function by name.
func (c *Config) Case(name string) (equilibrium.Case, error) {
	switch name {
	case "linear":
		return c.Equilibrium.Linear, nil
	case "quadratic":
		return c.Equilibrium.Quadratic, nil
	case "log":
		return c.Equilibrium.Log, nil
	case "exponential":
		return c.Equilibrium.Exponential, nil
	}
	return nil, fmt.Errorf("unknown case %q (have %v)", name, CaseNames())
}

func CaseNames() []string {
	return []string{"linear", "quadratic", "log", "exponential"}
}

// Settings builds the trajectory and diagram settings for a case.
func (c *Config) Settings(name string) equilibrium.Settings {
	run, ok := c.Equilibrium.Runs[name]
	if !ok {
		run = CaseRun{X0: 0.1, Times: Grid{Start: 0.01, Stop: 20, Points: 1000}}
	}
	times := run.Times.Values()
	return equilibrium.Settings{
		X0:    run.X0,
		Rates: c.Equilibrium.Rates,
		Times: times,
		Grid:  times,
	}
}

func (c *ODEFitConfig) Guesses() odefit.Guesses {
	return odefit.Guesses{
		Implicit:    c.Implicit,
		Explicit:    c.Explicit,
		ImplicitLog: c.ImplicitLog,
		ExplicitLog: c.ExplicitLog,
	}
}
