// Package automation runs scripted batches of experiments: YAML scenarios
// and randomized epidemic trials.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/export"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Params override the preset (or the defaults)
// by name; Field replaces the whole field section.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Model  string             `yaml:"model"`
	Preset string             `yaml:"preset"`
	Params map[string]float64 `yaml:"params"`
	Field  *field.Request     `yaml:"field"`
	SaveAs string             `yaml:"save_as"`
}

// StepResult is the view produced by one step. Failed steps carry the
// error classification in the view rather than aborting the scenario.
type StepResult struct {
	Step    string
	View    *experiment.View
	SavedTo string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Request builds the experiment request for the step.
func (s ScenarioStep) Request() (experiment.Request, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return experiment.Request{}, fmt.Errorf("unknown preset %q for %s", s.Preset, s.Model)
		}
	}
	cfg.Model = s.Model

	for name, v := range s.Params {
		var err error
		switch s.Model {
		case "exponential", "logistic":
			err = setGrowth(&cfg.Growth, name, v)
		case "sir", "seir":
			cfg.Epidemic, err = cfg.Epidemic.With(name, v)
		default:
			err = dynamo.InvalidParam(name, v, "model takes no numeric params")
		}
		if err != nil {
			return experiment.Request{}, err
		}
	}
	if s.Field != nil {
		cfg.Field = *s.Field
	}
	return experiment.FromConfig(cfg), nil
}

func setGrowth(p *growth.Params, name string, v float64) error {
	switch name {
	case "p0":
		p.P0 = v
	case "r":
		p.R = v
	case "k":
		p.K = v
	case "t_max", "tmax":
		p.TMax = v
	case "samples":
		p.Samples = int(v)
	default:
		return dynamo.InvalidParam(name, v, "unknown growth parameter (want p0, r, k, t_max or samples)")
	}
	return nil
}

// RunScenario executes all steps in order. Relative save_as paths are
// resolved against dir. Only malformed steps and write errors stop the run.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, dir string, logger *slog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Name
		if label == "" {
			label = fmt.Sprintf("%d:%s", i+1, step.Model)
		}
		logger.Info("running step", "step", label, "index", i+1, "total", len(scenario.Steps))

		req, err := step.Request()
		if err != nil {
			return results, fmt.Errorf("step %s: %w", label, err)
		}

		view := registry.Execute(ctx, req)
		res := StepResult{Step: label, View: view}
		if view.Failed() {
			logger.Warn("step failed", "step", label, "kind", view.Kind, "message", view.Message)
		} else if step.SaveAs != "" {
			path := step.SaveAs
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			if err := export.File(path, view, ""); err != nil {
				return results, fmt.Errorf("step %s: %w", label, err)
			}
			res.SavedTo = path
		}
		results = append(results, res)
	}

	return results, nil
}
