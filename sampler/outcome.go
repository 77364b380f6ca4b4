package sampler

import (
	"fmt"

	"bitbucket.org/Davydov/tefactor/dist"
)

// SelectOutcome updates the indicators and the coefficients of the
// outcome equation y = X beta + lambda theta + e. The regression is
// weighted by the inverse record variances. Covariates and factor
// loadings have separate mixture weights.
func SelectOutcome(m *Model, st *State, s *dist.Sampler, active, freeze bool) error {
	dy := m.spec.DY
	k := dy + m.spec.NLoadings()
	w := make([]float64, len(st.RecVar))
	for r, v := range st.RecVar {
		w[r] = 1 / v
	}
	eq := &equation{
		x:     st.xy,
		y:     m.panel.Y,
		w:     w,
		prior: m.prior.PrecY,
		ind:   append(append(make([]bool, 0, k), st.IndY...), st.IndLambda...),
		fixed: append(append(make([]bool, 0, k), m.spec.FixedY...), m.spec.FixedLoading...),
		weight: func(j int) float64 {
			if j < dy {
				return st.WY
			}
			return st.WLambda
		},
		coef: st.outcomeCoef(),
	}
	if err := eq.update(s, active, freeze); err != nil {
		return fmt.Errorf("outcome equation: %v", err)
	}
	copy(st.IndY, eq.ind[:dy])
	copy(st.IndLambda, eq.ind[dy:])
	copy(st.Beta, eq.coef[:dy])
	copy(st.Lambda, eq.coef[dy:])
	return nil
}
