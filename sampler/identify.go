package sampler

import (
	"bitbucket.org/Davydov/tefactor/dist"
)

// Identify multiplies all the factor loadings by a random sign. The
// factor itself is not changed.
func Identify(st *State, s *dist.Sampler) {
	sign := s.Sign()
	st.Delta *= sign
	for j := range st.Lambda {
		st.Lambda[j] *= sign
	}
}

// countFree returns the number of free positions and the number of
// included free positions.
func countFree(ind, fixed []bool) (free, included int) {
	for j, f := range fixed {
		if f {
			continue
		}
		free++
		if ind[j] {
			included++
		}
	}
	return
}

// drawWeight draws a mixture weight from its beta posterior.
func drawWeight(s *dist.Sampler, prior BetaPrior, ind, fixed []bool) float64 {
	free, included := countFree(ind, fixed)
	return s.Beta(prior.A+float64(included), prior.B+float64(free-included))
}

// UpdateWeights draws the three mixture weights.
func UpdateWeights(m *Model, st *State, s *dist.Sampler) {
	st.WX = drawWeight(s, m.prior.WX, st.IndX, m.spec.FixedX)
	st.WY = drawWeight(s, m.prior.WY, st.IndY, m.spec.FixedY)
	st.WLambda = drawWeight(s, m.prior.WLambda, st.IndLambda, m.spec.FixedLoading)
}
