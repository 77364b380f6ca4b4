package sampler

import (
	"fmt"

	"bitbucket.org/Davydov/tefactor/dist"
)

// SelectTreatment updates the indicators and the coefficients of the
// treatment selection equation D* = Z gamma + delta theta + u. The
// selection loading delta is always included.
func SelectTreatment(m *Model, st *State, s *dist.Sampler, active, freeze bool) error {
	dx := m.spec.DX
	eq := &equation{
		x:      st.xz,
		y:      st.DStar,
		prior:  m.prior.PrecX,
		ind:    append(append(make([]bool, 0, dx+1), st.IndX...), true),
		fixed:  append(append(make([]bool, 0, dx+1), m.spec.FixedX...), true),
		weight: func(int) float64 { return st.WX },
		coef:   st.selectionCoef(),
	}
	if err := eq.update(s, active, freeze); err != nil {
		return fmt.Errorf("treatment equation: %v", err)
	}
	copy(st.IndX, eq.ind[:dx])
	copy(st.Gamma, eq.coef[:dx])
	st.Delta = eq.coef[dx]
	return nil
}
