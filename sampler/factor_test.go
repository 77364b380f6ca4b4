package sampler

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"bitbucket.org/Davydov/tefactor/dist"
)

func TestSampleFactorMoments(tst *testing.T) {
	m, v := smallModel(tst)
	rng := dist.NewSampler(12)
	st, err := NewState(m, v, rng)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for j := range st.Lambda {
		st.Lambda[j] = 0.5 * float64(j+1)
	}
	st.Delta = 0.7
	p := m.panel

	// expected moments of subject 0
	i := 0
	prec := 1 + st.Delta*st.Delta
	zg := 0.0
	for j, g := range st.Gamma {
		zg += p.Z.At(i, j) * g
	}
	num := st.Delta * (st.DStar[i] - zg)
	for r := p.Offset[i]; r < p.Offset[i+1]; r++ {
		xb := 0.0
		for j, b := range st.Beta {
			xb += m.x.At(r, j) * b
		}
		l := st.Lambda[m.spec.LoadingIndex(p.Period[r], p.Arm[r])]
		prec += l * l / st.RecVar[r]
		num += l * (p.Y[r] - xb) / st.RecVar[r]
	}

	n := 20000
	draws := make([]float64, n)
	for k := range draws {
		SampleFactor(m, st, rng, false)
		draws[k] = st.Theta[i]
	}
	mean, sd := stat.MeanStdDev(draws, nil)
	if math.Abs(mean-num/prec) > smallDiff {
		tst.Error("Expected mean ", num/prec, ", got", mean)
	}
	if math.Abs(sd-1/math.Sqrt(prec)) > smallDiff {
		tst.Error("Expected sd ", 1/math.Sqrt(prec), ", got", sd)
	}
	for r := p.Offset[i]; r < p.Offset[i+1]; r++ {
		if st.xy.At(r, m.loadingColumn(r)) != st.Theta[i] {
			tst.Error("Outcome design is not updated for record ", r)
		}
	}
	if st.xz.At(i, m.spec.DX) != st.Theta[i] {
		tst.Error("Selection design is not updated")
	}

	th := append([]float64(nil), st.Theta...)
	SampleFactor(m, st, rng, true)
	for k := range th {
		if th[k] != st.Theta[k] {
			tst.Error("Frozen factor changed")
		}
	}
}
