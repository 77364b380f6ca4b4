package sampler

import (
	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/dist"
)

// SampleUtility draws the latent treatment utility of every subject
// from the normal distribution centered at Z gamma + delta theta,
// truncated to positive values for treated subjects and to negative
// values otherwise.
func SampleUtility(m *Model, st *State, s *dist.Sampler) {
	p := m.panel
	mu := mat.NewVecDense(p.N, nil)
	mu.MulVec(p.Z, mat.NewVecDense(len(st.Gamma), st.Gamma))
	for i, treated := range p.D {
		mean := mu.AtVec(i) + st.Delta*st.Theta[i]
		if treated {
			st.DStar[i] = s.TruncNormalPos(mean)
		} else {
			st.DStar[i] = s.TruncNormalNeg(mean)
		}
	}
}
