// Package sampler implements a Gibbs sampler for a panel treatment
// effect model with a shared latent factor and stochastic search
// variable selection.
//
// Every iteration performs, in this order: factor update, variance
// update, latent utility update, treatment equation update, outcome
// equation update, sign identification and (once the variable
// selection is active) mixture weight update. The sign flip leaves the
// factor unchanged; the factor is redrawn before anything uses the
// residuals. The state after every iteration is stored in an Archive.
package sampler

import (
	"fmt"

	"bitbucket.org/Davydov/tefactor/dist"
	"bitbucket.org/Davydov/tefactor/start"
)

// Phase is a sampler phase.
type Phase int

// Sampler phases.
const (
	Initializing Phase = iota
	BurnIn
	SelectionActive
	Recording
	Done
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case BurnIn:
		return "burn-in"
	case SelectionActive:
		return "selection"
	case Recording:
		return "recording"
	case Done:
		return "done"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Recorder receives every stored draw.
type Recorder interface {
	Record(meta *Meta, d *Draw) error
}

// Sampler is a Gibbs sampler chain.
type Sampler struct {
	model    *Model
	settings Settings
	state    *State
	rng      *dist.Sampler
	archive  *Archive
	recorder Recorder
	phase    Phase
	// i is the current iteration.
	i int
}

// New creates a new chain with the given seed.
func New(m *Model, v *start.Values, set Settings, seed uint64) (*Sampler, error) {
	if err := set.Check(); err != nil {
		return nil, err
	}
	rng := dist.NewSampler(seed)
	st, err := NewState(m, v, rng)
	if err != nil {
		return nil, err
	}
	meta := Meta{
		RunID:  RunID(m, set, seed),
		Seed:   seed,
		BurnIn: set.BurnIn,
		Total:  set.Total(),
		N:      m.panel.N,
		TMax:   m.panel.TMax,
		ZNames: covariateNames(m.panel.ZNames, m.spec.DX),
		YNames: covariateNames(m.panel.OutcomeNames(), m.spec.DY),
	}
	return &Sampler{
		model:    m,
		settings: set,
		state:    st,
		rng:      rng,
		archive:  NewArchive(meta),
		phase:    Initializing,
	}, nil
}

// covariateNames returns names, or indices if names are missing.
func covariateNames(names []string, k int) []string {
	if len(names) == k {
		return append([]string(nil), names...)
	}
	v := make([]string, k)
	for j := range v {
		v[j] = fmt.Sprint(j)
	}
	return v
}

// SetRecorder sets a recorder receiving every draw.
func (s *Sampler) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetChain sets the run identifier and the chain number.
func (s *Sampler) SetChain(runID string, chain int) {
	s.archive.RunID = runID
	s.archive.Chain = chain
}

// State returns the current chain state.
func (s *Sampler) State() *State {
	return s.state
}

// Phase returns the current phase.
func (s *Sampler) Phase() Phase {
	return s.phase
}

// Archive returns the archive.
func (s *Sampler) Archive() *Archive {
	return s.archive
}

// phaseAt returns the phase of iteration i.
func (s *Sampler) phaseAt(i int) Phase {
	switch {
	case i >= s.settings.Total():
		return Done
	case s.settings.SelectionStart >= 0 && i >= s.settings.SelectionStart:
		return SelectionActive
	case i < s.settings.BurnIn:
		return BurnIn
	}
	return Recording
}

// Step performs one iteration without storing it.
func (s *Sampler) Step() error {
	m, st, rng, set := s.model, s.state, s.rng, s.settings
	active := s.phase == SelectionActive

	SampleFactor(m, st, rng, set.FreezeFactor)
	SampleVariance(m, st, rng, set.FreezeVariance)
	SampleUtility(m, st, rng)
	if err := SelectTreatment(m, st, rng, active, set.FreezeTreatment); err != nil {
		return err
	}
	if err := SelectOutcome(m, st, rng, active, set.FreezeOutcome); err != nil {
		return err
	}
	if set.signFlip() {
		Identify(st, rng)
	}
	if active {
		UpdateWeights(m, st, rng)
	}
	return nil
}

// record stores the current state.
func (s *Sampler) record() error {
	d := newDraw(s.model, s.state, s.i, s.phase)
	if err := s.archive.Append(d); err != nil {
		return err
	}
	if s.recorder != nil {
		if err := s.recorder.Record(&s.archive.Meta, &d); err != nil {
			log.Errorf("Chain %d: error recording iteration %d: %v", s.archive.Chain, s.i, err)
		}
	}
	return nil
}

// Run runs the chain for all the iterations and returns the archive.
func (s *Sampler) Run() (*Archive, error) {
	total := s.settings.Total()
	for s.i = 0; s.i < total; s.i++ {
		if ph := s.phaseAt(s.i); ph != s.phase {
			log.Noticef("Chain %d: iteration %d, %v", s.archive.Chain, s.i, ph)
			s.phase = ph
		}
		if err := s.Step(); err != nil {
			return s.archive, fmt.Errorf("chain %d, iteration %d: %v", s.archive.Chain, s.i, err)
		}
		if err := s.record(); err != nil {
			return s.archive, err
		}
		if s.settings.Report > 0 && (s.i+1)%s.settings.Report == 0 {
			log.Debugf("Chain %d: iteration %d, delta=%v, w=(%v, %v, %v)", s.archive.Chain, s.i+1,
				s.state.Delta, s.state.WX, s.state.WY, s.state.WLambda)
		}
	}
	s.phase = Done
	log.Infof("Chain %d: finished %d iterations, lambda=%v, sigma2=%v", s.archive.Chain, total,
		s.state.Lambda, s.state.Sigma2)
	return s.archive, nil
}
