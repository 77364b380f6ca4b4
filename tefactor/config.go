package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/sampler"
	"bitbucket.org/Davydov/tefactor/start"
)

// priorConfig stores prior hyperparameters.
type priorConfig struct {
	// PrecX and PrecY are the diagonal prior precisions.
	PrecX float64 `yaml:"prec_x"`
	PrecY float64 `yaml:"prec_y"`
	// Weight is the prior of the mixture weights.
	Weight sampler.BetaPrior `yaml:"weight"`
	// Shape and Scale are the variance prior hyperparameters.
	Shape float64 `yaml:"shape"`
	Scale float64 `yaml:"scale"`
}

// runConfig is a run configuration read from a YAML file.
type runConfig struct {
	// Columns maps the CSV columns.
	Columns panel.Columns `yaml:"columns"`
	// Sampler are the sampler settings.
	Sampler sampler.Settings `yaml:"sampler"`
	// Prior are the prior hyperparameters.
	Prior priorConfig `yaml:"prior"`
	// FixedX and FixedY are the numbers of leading covariates which
	// are always included.
	FixedX int `yaml:"fixed_x"`
	FixedY int `yaml:"fixed_y"`
	// FixLoadings disables selection of the factor loadings.
	FixLoadings bool `yaml:"fix_loadings"`
	// Start are the starting values, computed from the data if
	// missing.
	Start *start.Values `yaml:"start"`
}

// defaultConfig returns the configuration used without a YAML file.
func defaultConfig() *runConfig {
	return &runConfig{
		Columns: panel.DefaultColumns(),
		Sampler: sampler.DefaultSettings(),
		Prior: priorConfig{
			PrecX:  0.01,
			PrecY:  0.01,
			Weight: sampler.BetaPrior{A: 1, B: 1},
			Shape:  sampler.DefaultShape,
			Scale:  sampler.DefaultScale,
		},
		FixedX: 1,
		FixedY: 1,
	}
}

// readConfig reads a YAML configuration. Values missing from the
// file keep their defaults.
func readConfig(fn string) (*runConfig, error) {
	cfg := defaultConfig()
	if fn == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}
	return cfg, nil
}

// prior creates the sampler prior.
func (pc priorConfig) prior(spec *panel.ModelSpec) *sampler.Prior {
	return sampler.DiagPrior(spec, pc.PrecX, pc.PrecY, pc.Weight, pc.Shape, pc.Scale)
}
