package panel

import "fmt"

// ModelSpec stores dimensions of the model and the covariates which
// are not subject to selection.
type ModelSpec struct {
	// DX is the number of treatment selection covariates.
	DX int
	// DY is the number of outcome covariates.
	DY int
	// TMax is the number of periods.
	TMax int
	// NFixedX and NFixedY are numbers of fixed covariates.
	NFixedX int
	NFixedY int

	// FixedX, FixedY and FixedLoading are true for covariates which
	// are always included.
	FixedX       []bool
	FixedY       []bool
	FixedLoading []bool
}

// NewModelSpec creates a model specification where the first nFixedX
// selection covariates and the first nFixedY outcome covariates are
// fixed. All the factor loadings are free.
func NewModelSpec(dx, dy, tmax, nFixedX, nFixedY int) (*ModelSpec, error) {
	if nFixedX < 0 || nFixedX > dx {
		return nil, fmt.Errorf("number of fixed selection covariates %d is out of range [0, %d]", nFixedX, dx)
	}
	if nFixedY < 0 || nFixedY > dy {
		return nil, fmt.Errorf("number of fixed outcome covariates %d is out of range [0, %d]", nFixedY, dy)
	}
	spec := &ModelSpec{
		DX:           dx,
		DY:           dy,
		TMax:         tmax,
		NFixedX:      nFixedX,
		NFixedY:      nFixedY,
		FixedX:       make([]bool, dx),
		FixedY:       make([]bool, dy),
		FixedLoading: make([]bool, Arms*tmax),
	}
	for j := 0; j < nFixedX; j++ {
		spec.FixedX[j] = true
	}
	for j := 0; j < nFixedY; j++ {
		spec.FixedY[j] = true
	}
	return spec, nil
}

// NLoadings returns the number of outcome factor loadings.
func (s *ModelSpec) NLoadings() int {
	return Arms * s.TMax
}

// LoadingIndex returns the position of the loading for period t and
// arm d.
func (s *ModelSpec) LoadingIndex(t, d int) int {
	return d*s.TMax + t
}

// FixLoadings pins all the factor loadings.
func (s *ModelSpec) FixLoadings() {
	for j := range s.FixedLoading {
		s.FixedLoading[j] = true
	}
}

// Check verifies that the specification matches the panel.
func (s *ModelSpec) Check(p *Panel) error {
	if s.DX != p.DX() {
		return fmt.Errorf("model has %d selection covariates, panel has %d", s.DX, p.DX())
	}
	if s.DY != p.DY() {
		return fmt.Errorf("model has %d outcome covariates, panel has %d", s.DY, p.DY())
	}
	if s.TMax != p.TMax {
		return fmt.Errorf("model has %d periods, panel has %d", s.TMax, p.TMax)
	}
	if len(s.FixedX) != s.DX || len(s.FixedY) != s.DY || len(s.FixedLoading) != s.NLoadings() {
		return fmt.Errorf("fixed masks don't match model dimensions")
	}
	return nil
}
