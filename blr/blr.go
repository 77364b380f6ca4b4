// Package blr implements conjugate Bayesian linear regression with a
// known noise precision and an inclusion mask over the coefficients.
//
// The model is
//
//	y = X_S b_S + e,  e ~ N(0, W^-1),  b_S ~ N(0, A_SS^-1),
//
// where S is the set of included coefficients given by a boolean mask,
// W is a diagonal matrix of precision weights and A is the prior
// precision matrix. Sufficient statistics X'WX and X'Wy are computed
// once; every mask restricts them through an index list, so that no
// sub-design is ever materialized.
package blr

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/dist"
)

// ErrNotPositiveDefinite is returned if a posterior or prior
// precision cannot be factorized.
var ErrNotPositiveDefinite = errors.New("precision matrix is not positive definite")

// Regression stores sufficient statistics of a weighted regression.
type Regression struct {
	k     int
	prior mat.Symmetric
	xtwx  *mat.SymDense
	xtwy  *mat.VecDense
}

// New creates a new Regression for the design x (n×k), response y
// and precision weights w (nil for unit weights). prior is the k×k
// prior precision of the coefficients.
func New(x mat.Matrix, y, w []float64, prior mat.Symmetric) *Regression {
	n, k := x.Dims()
	if len(y) != n {
		panic("response length doesn't match number of rows")
	}
	if w != nil && len(w) != n {
		panic("weights length doesn't match number of rows")
	}
	if prior.SymmetricDim() != k {
		panic("prior dimension doesn't match number of columns")
	}

	xs := mat.DenseCopyOf(x)
	ys := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sw := 1.0
		if w != nil {
			sw = math.Sqrt(w[i])
		}
		row := xs.RawRowView(i)
		for j := range row {
			row[j] *= sw
		}
		ys.SetVec(i, y[i]*sw)
	}

	r := &Regression{
		k:     k,
		prior: prior,
		xtwx:  mat.NewSymDense(k, nil),
		xtwy:  mat.NewVecDense(k, nil),
	}
	r.xtwx.SymOuterK(1, xs.T())
	r.xtwy.MulVec(xs.T(), ys)
	return r
}

// Dim returns the number of coefficients.
func (r *Regression) Dim() int {
	return r.k
}

// Index returns indices of the included coefficients.
func Index(mask []bool) (idx []int) {
	for i, in := range mask {
		if in {
			idx = append(idx, i)
		}
	}
	return
}

// Posterior is the conditional posterior of the included
// coefficients.
type Posterior struct {
	// Index lists the included coefficients.
	Index []int
	// Mean is the posterior mean of the included coefficients.
	Mean []float64
	// Chol is the Cholesky decomposition of the posterior
	// precision.
	Chol mat.Cholesky
	// LogML is the log marginal likelihood of the mask up to a
	// constant which doesn't depend on the mask.
	LogML float64
}

// factorize computes the Cholesky decomposition of m.
func factorize(chol *mat.Cholesky, m mat.Symmetric) error {
	if !chol.Factorize(m) {
		return ErrNotPositiveDefinite
	}
	return nil
}

// Posterior computes the posterior given the inclusion mask.
//
// The log marginal likelihood is
//
//	1/2 log|A_SS| - 1/2 log|P_S| + 1/2 b_S' P_S^-1 b_S,
//
// where P_S = A_SS + (X'WX)_SS and b_S = (X'Wy)_S. An empty mask has
// zero log marginal likelihood.
func (r *Regression) Posterior(mask []bool) (*Posterior, error) {
	if len(mask) != r.k {
		panic("mask length doesn't match number of coefficients")
	}
	post := &Posterior{Index: Index(mask)}
	m := len(post.Index)
	if m == 0 {
		return post, nil
	}

	a := mat.NewSymDense(m, nil)
	p := mat.NewSymDense(m, nil)
	b := mat.NewVecDense(m, nil)
	for i, ii := range post.Index {
		b.SetVec(i, r.xtwy.AtVec(ii))
		for j := i; j < m; j++ {
			jj := post.Index[j]
			av := r.prior.At(ii, jj)
			a.SetSym(i, j, av)
			p.SetSym(i, j, av+r.xtwx.At(ii, jj))
		}
	}

	var achol mat.Cholesky
	if err := factorize(&achol, a); err != nil {
		return nil, fmt.Errorf("prior: %v", err)
	}
	if err := factorize(&post.Chol, p); err != nil {
		return nil, fmt.Errorf("posterior: %v", err)
	}

	mean := mat.NewVecDense(m, nil)
	if err := post.Chol.SolveVecTo(mean, b); err != nil {
		// the solution is still computed for ill-conditioned
		// matrices
		if _, ok := err.(mat.Condition); !ok {
			return nil, err
		}
		log.Debugf("Ill-conditioned posterior precision: %v", err)
	}
	post.Mean = mean.RawVector().Data
	post.LogML = 0.5*achol.LogDet() - 0.5*post.Chol.LogDet() + 0.5*mat.Dot(b, mean)
	return post, nil
}

// LogMarginal returns the log marginal likelihood of the mask.
func (r *Regression) LogMarginal(mask []bool) (float64, error) {
	post, err := r.Posterior(mask)
	if err != nil {
		return math.NaN(), err
	}
	return post.LogML, nil
}

// Draw samples coefficients from the posterior given the mask.
// Excluded coefficients are set to zero. The result is written into
// dst (allocated if nil) and returned.
func (r *Regression) Draw(s *dist.Sampler, mask []bool, dst []float64) ([]float64, error) {
	if dst == nil {
		dst = make([]float64, r.k)
	}
	post, err := r.Posterior(mask)
	if err != nil {
		return dst, err
	}
	for i := range dst {
		dst[i] = 0
	}
	if len(post.Index) == 0 {
		return dst, nil
	}
	b := s.MVNormalPrec(post.Mean, &post.Chol, nil)
	for i, ii := range post.Index {
		dst[ii] = b[i]
	}
	return dst, nil
}
