package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
	"github.com/san-kum/popdyn/internal/integrators"
)

const (
	DefaultMethod   = "rk45"
	DefaultSubsteps = 10
	DefaultAddr     = ":8080"
	DefaultTimeout  = 10 * time.Second
	DefaultCity     = "lima"
	OpenMeteoURL    = "https://api.open-meteo.com/v1/forecast"
)

// Models lists the model names a config can select.
var Models = []string{"exponential", "logistic", "sir", "seir", "field"}

type Config struct {
	Model       string          `yaml:"model"`
	Description string          `yaml:"description,omitempty"`
	Growth      growth.Params   `yaml:"growth"`
	Epidemic    epidemic.Params `yaml:"epidemic"`
	Field       field.Request   `yaml:"field"`
	Solver      SolverConfig    `yaml:"solver"`
	Server      ServerConfig    `yaml:"server"`
	Weather     WeatherConfig   `yaml:"weather"`
}

type SolverConfig struct {
	Method   string  `yaml:"method"`
	AbsTol   float64 `yaml:"abs_tol"`
	RelTol   float64 `yaml:"rel_tol"`
	MaxSteps int     `yaml:"max_steps"`
	Substeps int     `yaml:"substeps"`
	Samples  int     `yaml:"samples"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ComputeTimeout time.Duration `yaml:"compute_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

type WeatherConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	City    string        `yaml:"city"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: "sir",
		Growth: growth.Params{
			P0: 200, R: 0.04, K: 750, TMax: 100, Samples: growth.DefaultSamples,
		},
		Epidemic: epidemic.Params{
			Kind: epidemic.KindSIR, N: 1000, Beta: 0.3, Gamma: 0.1, Sigma: 0.2, I0: 1, TMax: 100,
			Samples: epidemic.DefaultSamples,
		},
		Field: field.Request{DX: "-y", DY: "x", RangeX: 3, RangeY: 3, Mesh: 20},
		Solver: SolverConfig{
			Method:   DefaultMethod,
			AbsTol:   integrators.DefaultAbsTol,
			RelTol:   integrators.DefaultRelTol,
			MaxSteps: integrators.DefaultMaxSteps,
			Substeps: DefaultSubsteps,
			Samples:  epidemic.DefaultSamples,
		},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			ComputeTimeout: 20 * time.Second,
			LogLevel:       "info",
		},
		Weather: WeatherConfig{
			BaseURL: OpenMeteoURL,
			Timeout: DefaultTimeout,
			City:    DefaultCity,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file over an existing config, so only the keys the
// file sets are changed.
func LoadInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings that are not validated by the models
// themselves at computation time.
func (c *Config) Validate() error {
	var errs []error

	if !isModel(c.Model) {
		errs = append(errs, fmt.Errorf("unknown model %q", c.Model))
	}
	if _, err := integrators.NewSolver(c.Solver.Method, integrators.Options{}); err != nil {
		errs = append(errs, err)
	}
	if c.Solver.AbsTol <= 0 {
		errs = append(errs, dynamo.InvalidParam("solver.abs_tol", c.Solver.AbsTol, "must be positive"))
	}
	if c.Solver.RelTol <= 0 {
		errs = append(errs, dynamo.InvalidParam("solver.rel_tol", c.Solver.RelTol, "must be positive"))
	}
	if c.Solver.MaxSteps < 1 {
		errs = append(errs, dynamo.InvalidParam("solver.max_steps", float64(c.Solver.MaxSteps), "must be at least 1"))
	}
	if c.Solver.Substeps < 1 {
		errs = append(errs, dynamo.InvalidParam("solver.substeps", float64(c.Solver.Substeps), "must be at least 1"))
	}
	if c.Solver.Samples < 2 || c.Solver.Samples > epidemic.MaxSamples {
		errs = append(errs, dynamo.InvalidParam("solver.samples", float64(c.Solver.Samples), fmt.Sprintf("need between 2 and %d samples", epidemic.MaxSamples)))
	}
	if c.Server.ComputeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.compute_timeout must be positive, got %s", c.Server.ComputeTimeout))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Weather.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("weather.timeout must be positive, got %s", c.Weather.Timeout))
	}

	return errors.Join(errs...)
}

// Options converts the solver section for integrators.NewSolver.
func (s SolverConfig) Options() integrators.Options {
	return integrators.Options{
		AbsTol:   s.AbsTol,
		RelTol:   s.RelTol,
		MaxSteps: s.MaxSteps,
		Substeps: s.Substeps,
	}
}

// NewSolver builds a fresh solver from the solver section.
func (s SolverConfig) NewSolver() (dynamo.Solver, error) {
	return integrators.NewSolver(s.Method, s.Options())
}

// EpidemicParams returns the epidemic section with the solver sample count
// applied when the section leaves it unset.
func (c *Config) EpidemicParams() epidemic.Params {
	p := c.Epidemic
	if p.Samples == 0 {
		p.Samples = c.Solver.Samples
	}
	return p
}

func isModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
