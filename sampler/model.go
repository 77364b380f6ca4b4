package sampler

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"bitbucket.org/Davydov/tefactor/panel"
)

// Model stores the data, the model specification and the quantities
// which don't change during sampling. A Model is read-only and can
// be shared between chains.
type Model struct {
	panel *panel.Panel
	spec  *panel.ModelSpec
	prior *Prior
	index *panel.Index
	shape [][panel.Arms]float64
	// x are the outcome covariates.
	x *mat.Dense

	// standard deviations of the covariates and the outcome
	sdZ []float64
	sdX []float64
	sdY float64
}

// NewModel creates a new Model.
func NewModel(p *panel.Panel, spec *panel.ModelSpec, prior *Prior) (*Model, error) {
	if err := spec.Check(p); err != nil {
		return nil, err
	}
	if err := prior.Check(spec); err != nil {
		return nil, err
	}
	idx := panel.BuildIndex(p)
	m := &Model{
		panel: p,
		spec:  spec,
		prior: prior,
		index: idx,
		shape: PosteriorShape(prior, idx),
		x:     p.Outcome(),
	}
	m.sdZ = columnSD(p.Z)
	m.sdX = columnSD(m.x)
	m.sdY = stat.StdDev(p.Y, nil)
	if m.sdY == 0 {
		m.sdY = 1
	}
	return m, nil
}

// columnSD returns standard deviations of the matrix columns.
func columnSD(x *mat.Dense) []float64 {
	n, k := x.Dims()
	sd := make([]float64, k)
	col := make([]float64, n)
	for j := range sd {
		mat.Col(col, j, x)
		if n > 1 {
			sd[j] = stat.StdDev(col, nil)
		}
	}
	return sd
}

// Panel returns the panel.
func (m *Model) Panel() *panel.Panel {
	return m.panel
}

// Spec returns the model specification.
func (m *Model) Spec() *panel.ModelSpec {
	return m.spec
}

// Index returns the record index.
func (m *Model) Index() *panel.Index {
	return m.index
}

// Shape returns the posterior shapes of the variances.
func (m *Model) Shape() [][panel.Arms]float64 {
	return m.shape
}

// loadingColumn returns the column of the joint outcome design
// holding the factor of record r.
func (m *Model) loadingColumn(r int) int {
	return m.spec.DY + m.spec.LoadingIndex(m.panel.Period[r], m.panel.Arm[r])
}
