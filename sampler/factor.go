package sampler

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/dist"
)

// SampleFactor draws the shared factor of every subject from its
// normal posterior given the selection residual D* - Z gamma and the
// outcome residuals y - X beta. If freeze is true the factor is kept.
func SampleFactor(m *Model, st *State, s *dist.Sampler, freeze bool) {
	if freeze {
		return
	}
	p := m.panel

	rx := mat.NewVecDense(p.N, nil)
	rx.MulVec(p.Z, mat.NewVecDense(len(st.Gamma), st.Gamma))
	ry := mat.NewVecDense(p.NRecords(), nil)
	ry.MulVec(m.x, mat.NewVecDense(len(st.Beta), st.Beta))

	for i := 0; i < p.N; i++ {
		prec := 1 + st.Delta*st.Delta
		num := st.Delta * (st.DStar[i] - rx.AtVec(i))
		for r := p.Offset[i]; r < p.Offset[i+1]; r++ {
			l := st.Lambda[m.spec.LoadingIndex(p.Period[r], p.Arm[r])]
			prec += l * l / st.RecVar[r]
			num += l * (p.Y[r] - ry.AtVec(r)) / st.RecVar[r]
		}
		st.Theta[i] = num/prec + s.Normal()/math.Sqrt(prec)
	}
	st.updateFactor(m)
}
