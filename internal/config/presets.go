package config

import (
	"sort"

	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
)

// Preset overrides one model section of the defaults.
type Preset struct {
	Description string
	Growth      *growth.Params
	Epidemic    *epidemic.Params
	Field       *field.Request
}

func sir(n, beta, gamma, i0, r0, tmax float64) *epidemic.Params {
	return &epidemic.Params{Kind: epidemic.KindSIR, N: n, Beta: beta, Gamma: gamma, I0: i0, R0: r0, TMax: tmax}
}

func massAction(n, b, k, i0, r0, tmax float64) *epidemic.Params {
	beta, gamma := epidemic.FromMassAction(n, b, k)
	return sir(n, beta, gamma, i0, r0, tmax)
}

var Presets = map[string]map[string]Preset{
	"exponential": {
		"classic": {
			Description: "P0=100 growing at 3% per unit time",
			Growth:      &growth.Params{P0: 100, R: 0.03, TMax: 100, Samples: 11},
		},
		"decay": {
			Description: "P0=1000 decaying at 5% per unit time",
			Growth:      &growth.Params{P0: 1000, R: -0.05, TMax: 100},
		},
	},
	"logistic": {
		"classic": {
			Description: "S-curve towards K=2000 from P0=100",
			Growth:      &growth.Params{P0: 100, R: 0.1, K: 2000, TMax: 100, Samples: 50},
		},
		"interactive": {
			Description: "P0=200, r=0.04, K=750",
			Growth:      &growth.Params{P0: 200, R: 0.04, K: 750, TMax: 100},
		},
	},
	"sir": {
		"classic": {
			Description: "N=1000, beta=0.3, gamma=0.1, one initial case",
			Epidemic:    sir(1000, 0.3, 0.1, 1, 0, 100),
		},
		"epidemic": {
			Description: "campus outbreak: N=7138, b=1/7138, k=0.4",
			Epidemic:    massAction(7138, 1.0/7138, 0.4, 1, 0, 40),
		},
		"rumor": {
			Description: "faculty rumor: N=275, b=0.004, k=0.01, 8 initial skeptics",
			Epidemic:    massAction(275, 0.004, 0.01, 1, 8, 100),
		},
		"rumor-skeptic": {
			Description: "faculty rumor with doubled skepticism k=0.02",
			Epidemic:    massAction(275, 0.004, 0.02, 1, 8, 100),
		},
		"policy": {
			Description: "recycling policy adoption: N=10050, b=0.00005, k=0.00002",
			Epidemic:    massAction(10050, 0.00005, 0.00002, 50, 0, 60),
		},
	},
	"seir": {
		"classic": {
			Description: "N=1000, beta=0.5, gamma=0.1, sigma=0.2",
			Epidemic: &epidemic.Params{
				Kind: epidemic.KindSEIR, N: 1000, Beta: 0.5, Gamma: 0.1, Sigma: 0.2, I0: 1, TMax: 100,
			},
		},
	},
	"field": {
		"circular": {
			Description: "rotation around the origin",
			Field:       &field.Request{DX: "-y", DY: "x", RangeX: 3, RangeY: 3, Mesh: 20},
		},
		"saddle": {
			Description: "unstable along x, stable along y",
			Field:       &field.Request{DX: "x", DY: "-y", RangeX: 3, RangeY: 3, Mesh: 20},
		},
		"logistic": {
			Description: "logistic growth in x, decay in y",
			Field:       &field.Request{DX: "x*(1 - x)", DY: "-y", RangeX: 2, RangeY: 2, Mesh: 20},
		},
		"trig": {
			Description: "periodic cells",
			Field:       &field.Request{DX: "np.sin(y)", DY: "np.cos(x)", RangeX: 6, RangeY: 6, Mesh: 25},
		},
		"lotka-volterra": {
			Description: "predator and prey",
			Field:       &field.Request{DX: "x - x*y", DY: "x*y - y", RangeX: 3, RangeY: 3, Mesh: 20},
		},
	},
}

// GetPreset returns the defaults with one model section replaced by the
// named preset, or nil when it does not exist.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[name]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Model = model
	cfg.Description = p.Description
	switch {
	case p.Growth != nil:
		cfg.Growth = *p.Growth
		if cfg.Growth.Samples == 0 {
			cfg.Growth.Samples = growth.DefaultSamples
		}
	case p.Epidemic != nil:
		cfg.Epidemic = *p.Epidemic
	case p.Field != nil:
		cfg.Field = *p.Field
	}
	return cfg
}

// ListPresets returns the preset names of a model, sorted.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
