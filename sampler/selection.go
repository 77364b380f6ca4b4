package sampler

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/blr"
	"bitbucket.org/Davydov/tefactor/dist"
)

// equation is a regression equation with spike-and-slab coefficients.
type equation struct {
	x     mat.Matrix
	y     []float64
	w     []float64
	prior mat.Symmetric
	// ind are the inclusion indicators, fixed marks positions which
	// are always included.
	ind   []bool
	fixed []bool
	// weight returns the mixture weight of position j.
	weight func(j int) float64
	// coef are the coefficients.
	coef []float64
}

// hasFree returns true if at least one position is not fixed.
func hasFree(fixed []bool) bool {
	for _, f := range fixed {
		if !f {
			return true
		}
	}
	return false
}

// inclusionProb returns the posterior probability of inclusion given
// the mixture weight and log marginal likelihoods with and without
// the covariate.
func inclusionProb(w, l1, l0 float64) float64 {
	lo := math.Log(w) - math.Log1p(-w) + l1 - l0
	if lo > 0 {
		return 1 / (1 + math.Exp(-lo))
	}
	e := math.Exp(lo)
	return e / (1 + e)
}

// sweep draws indicators of the free positions one after another,
// each conditional on the current values of the others.
func sweep(r *blr.Regression, eq *equation, s *dist.Sampler) error {
	for j := range eq.ind {
		if eq.fixed[j] {
			eq.ind[j] = true
			continue
		}
		eq.ind[j] = true
		l1, err := r.LogMarginal(eq.ind)
		if err != nil {
			return err
		}
		eq.ind[j] = false
		l0, err := r.LogMarginal(eq.ind)
		if err != nil {
			return err
		}
		eq.ind[j] = s.Bernoulli(inclusionProb(eq.weight(j), l1, l0))
	}
	return nil
}

// update performs a selection sweep (if active and there are free
// positions) and draws the coefficients given the indicators. If
// freeze is true all the indicators are set to one and the
// coefficients are kept.
func (eq *equation) update(s *dist.Sampler, active, freeze bool) error {
	if freeze {
		for j := range eq.ind {
			eq.ind[j] = true
		}
		return nil
	}
	r := blr.New(eq.x, eq.y, eq.w, eq.prior)
	if active && hasFree(eq.fixed) {
		if err := sweep(r, eq, s); err != nil {
			return err
		}
	}
	_, err := r.Draw(s, eq.ind, eq.coef)
	return err
}
