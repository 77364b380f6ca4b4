// Package start computes starting values of the sampler: least
// squares estimates of the outcome equation and maximum likelihood
// estimates of the probit treatment selection equation.
package start

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/panel"
)

// rcond is the relative singular value cutoff used to compute the
// rank of a rank deficient design. The normal equations are not used
// if the condition number of X'X exceeds 1/rcond.
const rcond = 1e-10

// Values stores starting values.
type Values struct {
	// Gamma are the treatment selection coefficients.
	Gamma []float64 `json:"gamma" yaml:"gamma"`
	// Beta are the outcome coefficients.
	Beta []float64 `json:"beta" yaml:"beta"`
	// Sigma2 is the residual variance of the outcome equation.
	Sigma2 float64 `json:"sigma2" yaml:"sigma2"`
}

// Compute computes starting values for a panel.
func Compute(p *panel.Panel) (*Values, error) {
	beta, s2, err := OLS(p.Outcome(), p.Y)
	if err != nil {
		return nil, fmt.Errorf("outcome equation: %v", err)
	}
	gamma := Probit(p.Z, p.D)
	log.Infof("Starting values: gamma=%v, beta=%v, sigma2=%v", gamma, beta, s2)
	return &Values{
		Gamma:  gamma,
		Beta:   beta,
		Sigma2: s2,
	}, nil
}

// OLS computes least squares coefficients and the residual variance.
// The normal equations are solved through the Cholesky decomposition,
// the minimum norm solution computed with SVD is used for rank
// deficient designs.
func OLS(x mat.Matrix, y []float64) (beta []float64, sigma2 float64, err error) {
	n, k := x.Dims()
	if len(y) != n {
		return nil, 0, fmt.Errorf("design has %d rows, response has %d values", n, len(y))
	}
	if n == 0 {
		return nil, 0, errors.New("no observations")
	}
	yv := mat.NewVecDense(n, y)

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	b := mat.NewVecDense(k, nil)
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > 1/rcond || chol.SolveVecTo(b, &xty) != nil {
		log.Debug("Design is rank deficient, using SVD")
		var svd mat.SVD
		if !svd.Factorize(x, mat.SVDThin) {
			return nil, 0, errors.New("SVD factorization failed")
		}
		rank := svd.Rank(rcond)
		if rank == 0 {
			return nil, 0, errors.New("design has zero rank")
		}
		svd.SolveVecTo(b, yv, rank)
	}

	var res mat.VecDense
	res.MulVec(x, b)
	res.SubVec(yv, &res)
	ssr := mat.Dot(&res, &res)
	df := n - k
	if df <= 0 {
		df = n
	}
	sigma2 = ssr / float64(df)
	if sigma2 <= 0 {
		sigma2 = 1
	}
	return b.RawVector().Data, sigma2, nil
}
