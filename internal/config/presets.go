package config

import (
	"sort"

	"github.com/san-kum/gompertz/internal/odefit"
)

// Presets are named variations of the default configuration.
var Presets = map[string]func(*Config){
	// historical keeps the defaults: sentinel rate included, fixed AIC penalty.
	"historical": func(*Config) {},
	"clean-rates": func(c *Config) {
		c.Newton.IncludeSentinel = false
	},
	"counted-aic": func(c *Config) {
		c.ODEFit.AICPenalty = string(odefit.PenaltyCount)
	},
	"adaptive": func(c *Config) {
		c.ODEFit.Integrator = "rk45"
		c.ODEFit.Tolerance = 1e-10
	},
	"strict": func(c *Config) {
		c.Newton.IncludeSentinel = false
		c.ODEFit.AICPenalty = string(odefit.PenaltyCount)
		c.Newton.Alpha = 0.01
		c.ODEFit.Alpha = 0.01
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
