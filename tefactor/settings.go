package main

import (
	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/sampler"
)

// runSettings stores settings of a run. Command-line flags override
// the configuration file.
type runSettings struct {
	cfg      *runConfig
	settings sampler.Settings

	chains  int
	threads int
	seed    uint64

	boltF   string
	flush   float64
	sqliteF string
}

// newRunSettings initializes runSettings from the configuration and
// global variables (command-line arguments).
func newRunSettings(cfg *runConfig, threads int, seed uint64) *runSettings {
	set := cfg.Sampler
	if *burnIn >= 0 {
		set.BurnIn = *burnIn
	}
	if *draws >= 0 {
		set.Draws = *draws
	}
	if *selStart >= 0 {
		set.SelectionStart = *selStart
	}
	if *noSelection {
		set.SelectionStart = -1
	}
	set.FreezeVariance = set.FreezeVariance || *freezeVariance
	set.FreezeFactor = set.FreezeFactor || *freezeFactor
	set.FreezeTreatment = set.FreezeTreatment || *freezeTreatment
	set.FreezeOutcome = set.FreezeOutcome || *freezeOutcome
	set.NoSignFlip = set.NoSignFlip || *noSignFlip
	if *report >= 0 {
		set.Report = *report
	}

	if *fixedX >= 0 {
		cfg.FixedX = *fixedX
	}
	if *fixedY >= 0 {
		cfg.FixedY = *fixedY
	}
	cfg.FixLoadings = cfg.FixLoadings || *fixLoadings

	return &runSettings{
		cfg:      cfg,
		settings: set,
		chains:   *chains,
		threads:  threads,
		seed:     seed,
		boltF:    *outBoltF,
		flush:    *flushSeconds,
		sqliteF:  *sqliteF,
	}
}

// modelSpec creates the model specification for a panel.
func (rs *runSettings) modelSpec(p *panel.Panel) (*panel.ModelSpec, error) {
	spec, err := panel.NewModelSpec(p.DX(), p.DY(), p.TMax, rs.cfg.FixedX, rs.cfg.FixedY)
	if err != nil {
		return nil, err
	}
	if rs.cfg.FixLoadings {
		spec.FixLoadings()
	}
	return spec, nil
}

// model creates the sampler model.
func (rs *runSettings) model(p *panel.Panel) (*sampler.Model, error) {
	spec, err := rs.modelSpec(p)
	if err != nil {
		return nil, err
	}
	log.Infof("Model: dx=%d (%d fixed), dy=%d (%d fixed), %d loadings", spec.DX, spec.NFixedX,
		spec.DY, spec.NFixedY, spec.NLoadings())
	return sampler.NewModel(p, spec, rs.cfg.Prior.prior(spec))
}
