package sampler

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bitbucket.org/Davydov/tefactor/panel"
)

// Meta describes an archive.
type Meta struct {
	// RunID identifies a run, chains of the same run share it.
	RunID string `json:"runId"`
	// Chain is the chain number.
	Chain int `json:"chain"`
	// Seed is the chain seed.
	Seed uint64 `json:"seed"`
	// BurnIn is the number of burn-in iterations.
	BurnIn int `json:"burnIn"`
	// Total is the total number of iterations.
	Total int `json:"total"`

	N      int      `json:"n"`
	TMax   int      `json:"tMax"`
	ZNames []string `json:"zNames"`
	YNames []string `json:"yNames"`
}

// Draw stores the sampled values of one iteration.
type Draw struct {
	Iter  int   `json:"iter"`
	Phase Phase `json:"phase"`

	DStar []float64 `json:"dstar"`
	Theta []float64 `json:"theta"`

	Gamma  []float64 `json:"gamma"`
	Delta  float64   `json:"delta"`
	Beta   []float64 `json:"beta"`
	Lambda []float64 `json:"lambda"`

	IndX      []bool `json:"indX"`
	IndY      []bool `json:"indY"`
	IndLambda []bool `json:"indLambda"`

	WX      float64 `json:"wX"`
	WY      float64 `json:"wY"`
	WLambda float64 `json:"wLambda"`

	Sigma2 [][panel.Arms]float64 `json:"sigma2"`

	// Standardized coefficients.
	StdGamma []float64 `json:"stdGamma"`
	StdBeta  []float64 `json:"stdBeta"`
}

// RunID returns the run identifier of a seed. It is a name based
// UUID of the seed, the panel dimensions and the settings, so a
// replayed run gets the same identifier.
func RunID(m *Model, set Settings, seed uint64) string {
	p := m.panel
	name := fmt.Sprintf("tefactor/%d/%d/%d/%d/%+v", seed, p.N, p.TMax, p.NRecords(), set)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// newDraw copies the chain state into a new Draw.
func newDraw(m *Model, st *State, iter int, phase Phase) Draw {
	d := Draw{
		Iter:      iter,
		Phase:     phase,
		DStar:     append([]float64(nil), st.DStar...),
		Theta:     append([]float64(nil), st.Theta...),
		Gamma:     append([]float64(nil), st.Gamma...),
		Delta:     st.Delta,
		Beta:      append([]float64(nil), st.Beta...),
		Lambda:    append([]float64(nil), st.Lambda...),
		IndX:      append([]bool(nil), st.IndX...),
		IndY:      append([]bool(nil), st.IndY...),
		IndLambda: append([]bool(nil), st.IndLambda...),
		WX:        st.WX,
		WY:        st.WY,
		WLambda:   st.WLambda,
		Sigma2:    append([][panel.Arms]float64(nil), st.Sigma2...),
		StdGamma:  make([]float64, len(st.Gamma)),
		StdBeta:   make([]float64, len(st.Beta)),
	}
	for j, g := range st.Gamma {
		d.StdGamma[j] = g * m.sdZ[j]
	}
	for j, b := range st.Beta {
		d.StdBeta[j] = b * m.sdX[j] / m.sdY
	}
	return d
}

// Copy returns a deep copy of the draw.
func (d *Draw) Copy() Draw {
	c := *d
	c.DStar = append([]float64(nil), d.DStar...)
	c.Theta = append([]float64(nil), d.Theta...)
	c.Gamma = append([]float64(nil), d.Gamma...)
	c.Beta = append([]float64(nil), d.Beta...)
	c.Lambda = append([]float64(nil), d.Lambda...)
	c.IndX = append([]bool(nil), d.IndX...)
	c.IndY = append([]bool(nil), d.IndY...)
	c.IndLambda = append([]bool(nil), d.IndLambda...)
	c.Sigma2 = append([][panel.Arms]float64(nil), d.Sigma2...)
	c.StdGamma = append([]float64(nil), d.StdGamma...)
	c.StdBeta = append([]float64(nil), d.StdBeta...)
	return c
}

// boolValue converts an indicator to a number.
func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Values returns the scalar parameters of the draw in the order of
// Meta.Names. The utility and the factor are not included.
func (d *Draw) Values() []float64 {
	v := make([]float64, 0, 4*(len(d.Gamma)+len(d.Beta)+len(d.Lambda))+8)
	v = append(v, d.Gamma...)
	v = append(v, d.Delta)
	v = append(v, d.Beta...)
	v = append(v, d.Lambda...)
	for _, b := range d.IndX {
		v = append(v, boolValue(b))
	}
	for _, b := range d.IndY {
		v = append(v, boolValue(b))
	}
	for _, b := range d.IndLambda {
		v = append(v, boolValue(b))
	}
	v = append(v, d.WX, d.WY, d.WLambda)
	for _, s := range d.Sigma2 {
		v = append(v, s[:]...)
	}
	v = append(v, d.StdGamma...)
	return append(v, d.StdBeta...)
}

// loadingName returns the name suffix of a loading or a variance.
func loadingName(t, d int) string {
	return fmt.Sprintf("[t=%d,d=%d]", t, d)
}

// Names returns names of the scalar parameters in the order of
// Draw.Values.
func (meta *Meta) Names() []string {
	var names []string
	add := func(prefix string, covs []string) {
		for _, c := range covs {
			names = append(names, prefix+"["+c+"]")
		}
	}
	loadings := func(prefix string) {
		for d := 0; d < panel.Arms; d++ {
			for t := 0; t < meta.TMax; t++ {
				names = append(names, prefix+loadingName(t, d))
			}
		}
	}
	add("gamma", meta.ZNames)
	names = append(names, "delta")
	add("beta", meta.YNames)
	loadings("lambda")
	add("ind_x", meta.ZNames)
	add("ind_y", meta.YNames)
	loadings("ind_lambda")
	names = append(names, "w_x", "w_y", "w_lambda")
	for t := 0; t < meta.TMax; t++ {
		for d := 0; d < panel.Arms; d++ {
			names = append(names, "sigma2"+loadingName(t, d))
		}
	}
	add("std_gamma", meta.ZNames)
	add("std_beta", meta.YNames)
	return names
}

// Archive stores draws of all the iterations of a chain. The storage
// is allocated when the archive is created.
type Archive struct {
	Meta
	draws []Draw
}

// NewArchive creates an empty archive for meta.Total iterations.
func NewArchive(meta Meta) *Archive {
	return &Archive{
		Meta:  meta,
		draws: make([]Draw, 0, meta.Total),
	}
}

// ErrArchiveFull is returned when appending to a full archive.
var ErrArchiveFull = errors.New("archive is full")

// Append adds a draw to the archive.
func (a *Archive) Append(d Draw) error {
	if len(a.draws) == a.Total {
		return ErrArchiveFull
	}
	a.draws = append(a.draws, d)
	return nil
}

// Rows returns the number of stored draws.
func (a *Archive) Rows() int {
	return len(a.draws)
}

// Draw returns a copy of draw i.
func (a *Archive) Draw(i int) Draw {
	return a.draws[i].Copy()
}

// Draws returns the stored draws. They must not be modified.
func (a *Archive) Draws() []Draw {
	return a.draws
}

// Trace returns values of the named parameter for all the stored
// draws.
func (a *Archive) Trace(name string) ([]float64, error) {
	pos := -1
	for i, n := range a.Names() {
		if n == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("unknown parameter %q", name)
	}
	tr := make([]float64, len(a.draws))
	for i := range a.draws {
		tr[i] = a.draws[i].Values()[pos]
	}
	return tr, nil
}
