// Package dist implements random variate generators used by the Gibbs
// sampler.
//
// All the draws of a chain go through a single Sampler, so the order
// in which the variates are consumed from the underlying source is
// fixed and a chain can be replayed from its seed.
package dist

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minWeight is the smallest distance of a Beta variate from 0 or 1.
const minWeight = 1e-12

// Sampler wraps a random source.
type Sampler struct {
	src rand.Source
	rnd *rand.Rand
}

// NewSampler creates a new Sampler seeded with seed.
func NewSampler(seed uint64) *Sampler {
	src := rand.NewSource(seed)
	return &Sampler{
		src: src,
		rnd: rand.New(src),
	}
}

// Source returns the underlying random source.
func (s *Sampler) Source() rand.Source {
	return s.src
}

// Uint64 returns a random 64-bit value.
func (s *Sampler) Uint64() uint64 {
	return s.rnd.Uint64()
}

// Float64 returns a uniform variate in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rnd.Float64()
}

// Normal returns a standard normal variate.
func (s *Sampler) Normal() float64 {
	return s.rnd.NormFloat64()
}

// Sign returns +1 or -1 with equal probability.
func (s *Sampler) Sign() float64 {
	if s.rnd.Float64() < 0.5 {
		return -1
	}
	return 1
}

// Bernoulli returns true with probability p.
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rnd.Float64() < p
}

// InvGamma returns a variate from the inverse gamma distribution
// with the given shape and scale.
func (s *Sampler) InvGamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		panic("shape and scale of inverse gamma distribution must be > 0")
	}
	return distuv.InverseGamma{Alpha: shape, Beta: scale, Src: s.src}.Rand()
}

// Beta returns a variate from Beta(a, b). The result is kept strictly
// inside (0, 1).
func (s *Sampler) Beta(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		panic("parameters of beta distribution must be > 0")
	}
	x := distuv.Beta{Alpha: a, Beta: b, Src: s.src}.Rand()
	return math.Min(math.Max(x, minWeight), 1-minWeight)
}

// tail returns a standard normal variate conditioned on being larger
// than a.
//
// For a <= 0 plain rejection is used (acceptance rate >= 1/2). For
// a > 0 the exponential proposal of Robert (1995) is used.
func (s *Sampler) tail(a float64) float64 {
	if a <= 0 {
		for {
			z := s.rnd.NormFloat64()
			if z > a {
				return z
			}
		}
	}
	alpha := (a + math.Sqrt(a*a+4)) / 2
	for {
		z := a + s.rnd.ExpFloat64()/alpha
		rho := math.Exp(-(z - alpha) * (z - alpha) / 2)
		if s.rnd.Float64() <= rho {
			return z
		}
	}
}

// TruncNormalPos returns a variate from N(mu, 1) truncated to
// (0, +inf). The result is always strictly positive.
func (s *Sampler) TruncNormalPos(mu float64) float64 {
	for {
		x := mu + s.tail(-mu)
		if x > 0 {
			return x
		}
	}
}

// TruncNormalNeg returns a variate from N(mu, 1) truncated to
// (-inf, 0). The result is always strictly negative.
func (s *Sampler) TruncNormalNeg(mu float64) float64 {
	return -s.TruncNormalPos(-mu)
}

// MVNormalPrec draws from the multivariate normal distribution with
// the given mean and precision matrix P, where chol is the Cholesky
// decomposition of P. The result is written into dst (allocated if
// nil) and returned.
//
// With P = U'U the variate is mean + U^-1 z, z ~ N(0, I).
func (s *Sampler) MVNormalPrec(mean []float64, chol *mat.Cholesky, dst []float64) []float64 {
	n := len(mean)
	if chol.SymmetricDim() != n {
		panic("dimensions of mean and precision don't match")
	}
	if dst == nil {
		dst = make([]float64, n)
	}
	z := make([]float64, n)
	for i := range z {
		z[i] = s.rnd.NormFloat64()
	}
	u := chol.RawU()
	// back substitution U x = z
	for i := n - 1; i >= 0; i-- {
		v := z[i]
		for j := i + 1; j < n; j++ {
			v -= u.At(i, j) * z[j]
		}
		z[i] = v / u.At(i, i)
	}
	for i := range dst {
		dst[i] = mean[i] + z[i]
	}
	return dst
}
