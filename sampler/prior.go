package sampler

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/panel"
)

// BetaPrior is a Beta prior of a mixture weight.
type BetaPrior struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
}

// Prior stores prior hyperparameters.
type Prior struct {
	// PrecX is the prior precision of the treatment selection
	// coefficients followed by the selection factor loading.
	PrecX *mat.SymDense
	// PrecY is the prior precision of the outcome coefficients
	// followed by the outcome factor loadings.
	PrecY *mat.SymDense
	// WX, WY and WLambda are priors of the mixture weights of
	// selection covariates, outcome covariates and factor loadings.
	WX      BetaPrior
	WY      BetaPrior
	WLambda BetaPrior
	// Shape[t][d] and Scale[t][d] are inverse gamma hyperparameters
	// of the idiosyncratic variances.
	Shape [][panel.Arms]float64
	Scale [][panel.Arms]float64
}

// DiagPrior creates a prior with diagonal precision matrices and
// the same variance hyperparameters in every cell.
func DiagPrior(spec *panel.ModelSpec, precX, precY float64, w BetaPrior, shape, scale float64) *Prior {
	kx := spec.DX + 1
	ky := spec.DY + spec.NLoadings()
	p := &Prior{
		PrecX:   mat.NewSymDense(kx, nil),
		PrecY:   mat.NewSymDense(ky, nil),
		WX:      w,
		WY:      w,
		WLambda: w,
		Shape:   make([][panel.Arms]float64, spec.TMax),
		Scale:   make([][panel.Arms]float64, spec.TMax),
	}
	for j := 0; j < kx; j++ {
		p.PrecX.SetSym(j, j, precX)
	}
	for j := 0; j < ky; j++ {
		p.PrecY.SetSym(j, j, precY)
	}
	for t := range p.Shape {
		for d := 0; d < panel.Arms; d++ {
			p.Shape[t][d] = shape
			p.Scale[t][d] = scale
		}
	}
	return p
}

// Default variance prior hyperparameters.
const (
	DefaultShape = 2
	DefaultScale = 0.05
)

// DefaultPrior returns a diffuse prior: precision 0.01 for all the
// coefficients, Beta(1, 1) for the mixture weights and
// InvGamma(DefaultShape, DefaultScale) for the variances.
func DefaultPrior(spec *panel.ModelSpec) *Prior {
	return DiagPrior(spec, 0.01, 0.01, BetaPrior{1, 1}, DefaultShape, DefaultScale)
}

// Check verifies the prior dimensions and hyperparameters.
func (p *Prior) Check(spec *panel.ModelSpec) error {
	if p.PrecX == nil || p.PrecX.SymmetricDim() != spec.DX+1 {
		return fmt.Errorf("selection prior precision must be %dx%d", spec.DX+1, spec.DX+1)
	}
	ky := spec.DY + spec.NLoadings()
	if p.PrecY == nil || p.PrecY.SymmetricDim() != ky {
		return fmt.Errorf("outcome prior precision must be %dx%d", ky, ky)
	}
	for _, w := range []BetaPrior{p.WX, p.WY, p.WLambda} {
		if w.A <= 0 || w.B <= 0 {
			return fmt.Errorf("mixture weight prior Beta(%v, %v) is improper", w.A, w.B)
		}
	}
	if len(p.Shape) != spec.TMax || len(p.Scale) != spec.TMax {
		return fmt.Errorf("variance prior must have %d periods", spec.TMax)
	}
	for t := range p.Shape {
		for d := 0; d < panel.Arms; d++ {
			if p.Shape[t][d] <= 0 || p.Scale[t][d] <= 0 {
				return fmt.Errorf("variance prior of period %d, arm %d must be positive", t, d)
			}
		}
	}
	return nil
}

// PosteriorShape returns the posterior shape of every variance cell,
// which doesn't change between iterations.
func PosteriorShape(prior *Prior, idx *panel.Index) [][panel.Arms]float64 {
	s := make([][panel.Arms]float64, len(prior.Shape))
	for t := range s {
		for d := 0; d < panel.Arms; d++ {
			s[t][d] = prior.Shape[t][d] + float64(idx.Count[t][d])/2
		}
	}
	return s
}
