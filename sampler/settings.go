package sampler

import "errors"

// Settings stores sampler settings.
type Settings struct {
	// BurnIn is the number of burn-in iterations.
	BurnIn int `yaml:"burnin"`
	// Draws is the number of iterations after burn-in.
	Draws int `yaml:"draws"`
	// SelectionStart is the iteration (0-based) from which the
	// variable selection is performed. Negative values disable
	// selection.
	SelectionStart int `yaml:"selection_start"`

	// Freeze flags keep the corresponding parameters at their
	// starting values. The loadings of a frozen equation keep their
	// sign as well, so freezing either equation disables the sign
	// flip.
	FreezeVariance  bool `yaml:"freeze_variance"`
	FreezeFactor    bool `yaml:"freeze_factor"`
	FreezeTreatment bool `yaml:"freeze_treatment"`
	FreezeOutcome   bool `yaml:"freeze_outcome"`

	// NoSignFlip disables the random sign flip of the loadings.
	NoSignFlip bool `yaml:"no_sign_flip"`
	// Report is the progress report period, zero disables reports.
	Report int `yaml:"report"`
}

// DefaultSettings returns the default sampler settings.
func DefaultSettings() Settings {
	return Settings{
		BurnIn:         1000,
		Draws:          5000,
		SelectionStart: 500,
		Report:         100,
	}
}

// signFlip returns true if the loadings are flipped every iteration.
func (s Settings) signFlip() bool {
	return !s.NoSignFlip && !s.FreezeTreatment && !s.FreezeOutcome
}

// Total returns the total number of iterations.
func (s Settings) Total() int {
	return s.BurnIn + s.Draws
}

// Check verifies iteration counts.
func (s Settings) Check() error {
	if s.BurnIn < 0 || s.Draws < 0 {
		return errors.New("number of iterations cannot be negative")
	}
	if s.Total() == 0 {
		return errors.New("number of iterations is zero")
	}
	return nil
}
