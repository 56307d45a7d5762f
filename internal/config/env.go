package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/san-kum/gompertz/internal/telemetry"
)

// Env holds the GOMPERTZ_* environment overrides.
type Env struct {
	DataDir   string `envconfig:"DATA_DIR"`
	RunsDir   string `envconfig:"RUNS_DIR"`
	FigureDir string `envconfig:"FIGURE_DIR"`
	LogLevel  string `envconfig:"LOG_LEVEL"`

	OTelEnabled  bool   `envconfig:"OTEL_ENABLED"`
	OTelEndpoint string `envconfig:"OTEL_ENDPOINT"`
	OTelInsecure bool   `envconfig:"OTEL_INSECURE"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("gompertz", &e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// ApplyEnv overrides file values with every variable that is set.
func (c *Config) ApplyEnv(e Env) {
	if e.DataDir != "" {
		c.Data.Dir = e.DataDir
	}
	if e.RunsDir != "" {
		c.Output.RunsDir = e.RunsDir
	}
	if e.FigureDir != "" {
		c.Output.FigureDir = e.FigureDir
	}
	if e.LogLevel != "" {
		c.Log.Level = e.LogLevel
	}
}

// Telemetry returns the OTLP exporter settings.
func (e Env) Telemetry() telemetry.Config {
	return telemetry.Config{Endpoint: e.OTelEndpoint, Enabled: e.OTelEnabled, Insecure: e.OTelInsecure}
}
