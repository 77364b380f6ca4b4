package sampler

import (
	"bitbucket.org/Davydov/tefactor/dist"
	"bitbucket.org/Davydov/tefactor/panel"
)

// SampleVariance draws the idiosyncratic variance of every period and
// arm from its inverse gamma posterior. A cell without records is
// drawn from the prior. If freeze is true the variances are kept. The
// per-record variances are updated in both cases.
func SampleVariance(m *Model, st *State, s *dist.Sampler, freeze bool) {
	if !freeze {
		e := st.outcomeResiduals(m)
		for t := range st.Sigma2 {
			for d := 0; d < panel.Arms; d++ {
				scale := m.prior.Scale[t][d]
				if m.index.Count[t][d] == 0 {
					st.Sigma2[t][d] = s.InvGamma(m.prior.Shape[t][d], scale)
					continue
				}
				ssr := 0.0
				for _, r := range m.index.Cells[t][d] {
					ssr += e[r] * e[r]
				}
				st.Sigma2[t][d] = s.InvGamma(m.shape[t][d], scale+ssr/2)
			}
		}
	}
	st.updateRecVar(m)
}
