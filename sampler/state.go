package sampler

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/dist"
	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/start"
)

// State is the state of a chain.
type State struct {
	// DStar is the latent treatment utility of every subject.
	DStar []float64
	// Theta is the shared factor of every subject.
	Theta []float64

	// Gamma are the selection coefficients, Delta is the selection
	// factor loading.
	Gamma []float64
	Delta float64
	// Beta are the outcome coefficients, Lambda are the outcome
	// factor loadings (index d*TMax+t).
	Beta   []float64
	Lambda []float64

	// Inclusion indicators.
	IndX      []bool
	IndY      []bool
	IndLambda []bool

	// Mixture weights.
	WX      float64
	WY      float64
	WLambda float64

	// Sigma2[t][d] is the idiosyncratic variance of period t and
	// arm d.
	Sigma2 [][panel.Arms]float64
	// RecVar is the variance of every record.
	RecVar []float64

	// xz is the selection design [Z | theta].
	xz *mat.Dense
	// xy is the outcome design [X | F(theta)].
	xy *mat.Dense
}

// NewState creates the starting state of a chain. The factor is drawn
// from the standard normal distribution, the selection loading is set
// to one and the outcome loadings to zero. All the covariates are
// included and all the mixture weights are 0.5.
func NewState(m *Model, v *start.Values, s *dist.Sampler) (*State, error) {
	p, spec := m.panel, m.spec
	if len(v.Gamma) != spec.DX {
		return nil, fmt.Errorf("%d starting selection coefficients, expected %d", len(v.Gamma), spec.DX)
	}
	if len(v.Beta) != spec.DY {
		return nil, fmt.Errorf("%d starting outcome coefficients, expected %d", len(v.Beta), spec.DY)
	}
	if v.Sigma2 <= 0 {
		return nil, fmt.Errorf("starting variance %v must be positive", v.Sigma2)
	}
	nrec := p.NRecords()
	nl := spec.NLoadings()

	st := &State{
		DStar:     make([]float64, p.N),
		Theta:     make([]float64, p.N),
		Gamma:     append([]float64(nil), v.Gamma...),
		Delta:     1,
		Beta:      append([]float64(nil), v.Beta...),
		Lambda:    make([]float64, nl),
		IndX:      ones(spec.DX),
		IndY:      ones(spec.DY),
		IndLambda: ones(nl),
		WX:        0.5,
		WY:        0.5,
		WLambda:   0.5,
		Sigma2:    make([][panel.Arms]float64, p.TMax),
		RecVar:    make([]float64, nrec),
		xz:        mat.NewDense(p.N, spec.DX+1, nil),
		xy:        mat.NewDense(nrec, spec.DY+nl, nil),
	}
	for t := range st.Sigma2 {
		for d := 0; d < panel.Arms; d++ {
			st.Sigma2[t][d] = v.Sigma2
		}
	}
	st.updateRecVar(m)

	for i := range st.Theta {
		st.Theta[i] = s.Normal()
	}
	st.xz.Slice(0, p.N, 0, spec.DX).(*mat.Dense).Copy(p.Z)
	st.xy.Slice(0, nrec, 0, spec.DY).(*mat.Dense).Copy(m.x)
	st.updateFactor(m)

	SampleUtility(m, st, s)
	return st, nil
}

// ones returns a slice of n true values.
func ones(n int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

// updateRecVar copies cell variances to records.
func (st *State) updateRecVar(m *Model) {
	p := m.panel
	for r := range st.RecVar {
		st.RecVar[r] = st.Sigma2[p.Period[r]][p.Arm[r]]
	}
}

// updateFactor copies the factor into the design matrices.
func (st *State) updateFactor(m *Model) {
	p := m.panel
	for i, th := range st.Theta {
		st.xz.Set(i, m.spec.DX, th)
	}
	for r := 0; r < p.NRecords(); r++ {
		st.xy.Set(r, m.loadingColumn(r), st.Theta[p.Subject[r]])
	}
}

// OutcomeDesign returns the joint outcome design [X | F(theta)].
func (st *State) OutcomeDesign() mat.Matrix {
	return st.xy
}

// SelectionDesign returns the selection design [Z | theta].
func (st *State) SelectionDesign() mat.Matrix {
	return st.xz
}

// selectionCoef returns the selection coefficients followed by the
// selection loading.
func (st *State) selectionCoef() []float64 {
	c := make([]float64, 0, len(st.Gamma)+1)
	c = append(c, st.Gamma...)
	return append(c, st.Delta)
}

// outcomeCoef returns the outcome coefficients followed by the
// loadings.
func (st *State) outcomeCoef() []float64 {
	c := make([]float64, 0, len(st.Beta)+len(st.Lambda))
	c = append(c, st.Beta...)
	return append(c, st.Lambda...)
}

// outcomeResiduals returns y - X beta - lambda theta.
func (st *State) outcomeResiduals(m *Model) []float64 {
	c := st.outcomeCoef()
	e := mat.NewVecDense(len(m.panel.Y), nil)
	e.MulVec(st.xy, mat.NewVecDense(len(c), c))
	e.SubVec(mat.NewVecDense(len(m.panel.Y), m.panel.Y), e)
	return e.RawVector().Data
}
