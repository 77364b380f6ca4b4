package start

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
	"gonum.org/v1/gonum/mat"
)

// bound is the absolute bound of the probit coefficients; it keeps
// the optimizer finite for separable data.
const bound = 20

// logPhi returns log of the standard normal CDF and the inverse Mills
// ratio phi(x)/Phi(x).
func logPhi(x float64) (lp, mills float64) {
	if x > -30 {
		cdf := 0.5 * math.Erfc(-x/math.Sqrt2)
		pdf := math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
		return math.Log(cdf), pdf / cdf
	}
	// asymptotic expansion of the lower tail
	x2 := x * x
	s := 1 - 1/x2 + 3/(x2*x2)
	lp = -x2/2 - 0.5*math.Log(2*math.Pi) - math.Log(-x) + math.Log(s)
	return lp, -x / s
}

// probit is the negative log likelihood of a probit model.
type probit struct {
	z    mat.Matrix
	d    []bool
	q    *mat.VecDense
	grad []float64
}

// predictor computes the linear predictor for coefficients g.
func (p *probit) predictor(g []float64) {
	p.q.MulVec(p.z, mat.NewVecDense(len(g), g))
}

// EvaluateFunction returns the negative log likelihood.
func (p *probit) EvaluateFunction(g []float64) float64 {
	p.predictor(g)
	f := 0.0
	for i, d := range p.d {
		q := p.q.AtVec(i)
		if !d {
			q = -q
		}
		lp, _ := logPhi(q)
		f -= lp
	}
	return f
}

// EvaluateGradient returns the gradient of the negative log
// likelihood.
func (p *probit) EvaluateGradient(g []float64) []float64 {
	if p.grad == nil {
		p.grad = make([]float64, len(g))
	}
	for j := range p.grad {
		p.grad[j] = 0
	}
	p.predictor(g)
	_, k := p.z.Dims()
	for i, d := range p.d {
		sign := 1.0
		if !d {
			sign = -1
		}
		_, mills := logPhi(sign * p.q.AtVec(i))
		for j := 0; j < k; j++ {
			p.grad[j] -= sign * mills * p.z.At(i, j)
		}
	}
	return p.grad
}

// Probit computes maximum likelihood estimates of the probit model
// P(d=1) = Phi(z g). It returns zeros if the optimization fails.
func Probit(z mat.Matrix, d []bool) []float64 {
	n, k := z.Dims()
	obj := &probit{
		z: z,
		d: d,
		q: mat.NewVecDense(n, nil),
	}
	bounds := make([][2]float64, k)
	for j := range bounds {
		bounds[j] = [2]float64{-bound, bound}
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)
	opt.SetBounds(bounds)
	opt.SetLogger(func(info *lbfgsb.OptimizationIterationInformation) {
		log.Debugf("probit iteration %d: -lnL=%v", info.Iteration, info.F)
	})

	min, exitStatus := opt.Minimize(obj, make([]float64, k))
	log.Debugf("Probit exit status: %v", exitStatus)

	g := make([]float64, k)
	if math.IsNaN(min.F) || math.IsInf(min.F, 0) || len(min.X) != k {
		log.Warning("Probit optimization failed, starting from zero coefficients")
		return g
	}
	for j, v := range min.X {
		if math.IsNaN(v) {
			log.Warning("Probit optimization failed, starting from zero coefficients")
			return make([]float64, k)
		}
		g[j] = v
	}
	return g
}
