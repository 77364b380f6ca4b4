package dist

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
)

const (
	nDraws    = 20000
	smallDiff = 0.05
)

/*** Tests that truncated normal draws respect the truncation ***/
func TestTruncNormalSign(tst *testing.T) {
	s := NewSampler(1)
	for _, mu := range []float64{-40, -8, -1, 0, 0.3, 5, 40} {
		for i := 0; i < 1000; i++ {
			if x := s.TruncNormalPos(mu); !(x > 0) {
				tst.Fatalf("TruncNormalPos(%v) returned %v", mu, x)
			}
			if x := s.TruncNormalNeg(mu); !(x < 0) {
				tst.Fatalf("TruncNormalNeg(%v) returned %v", mu, x)
			}
		}
	}
}

/*** Compares the mean of N(0,1) truncated at 0 with sqrt(2/pi) ***/
func TestTruncNormalMean(tst *testing.T) {
	s := NewSampler(2)
	sum := 0.0
	for i := 0; i < nDraws; i++ {
		sum += s.TruncNormalPos(0)
	}
	mean := sum / nDraws
	ref := math.Sqrt(2 / math.Pi)
	if math.Abs(mean-ref) > smallDiff {
		tst.Error("Expected ", ref, ", got", mean)
	}
}

func TestInvGammaMean(tst *testing.T) {
	s := NewSampler(3)
	shape, scale := 6.0, 10.0
	sum := 0.0
	for i := 0; i < nDraws; i++ {
		sum += s.InvGamma(shape, scale)
	}
	mean := sum / nDraws
	ref := scale / (shape - 1)
	if math.Abs(mean-ref)/ref > smallDiff {
		tst.Error("Expected ", ref, ", got", mean)
	}
}

/*** Compares the empirical CDF of Beta draws with the regularized incomplete beta ***/
func TestBetaCDF(tst *testing.T) {
	s := NewSampler(4)
	a, b := 2.0, 5.0
	x := 0.3
	below := 0
	for i := 0; i < nDraws; i++ {
		v := s.Beta(a, b)
		if v <= 0 || v >= 1 {
			tst.Fatal("Beta variate out of (0, 1):", v)
		}
		if v < x {
			below++
		}
	}
	ref := mathext.RegIncBeta(a, b, x)
	got := float64(below) / nDraws
	if math.Abs(got-ref) > smallDiff {
		tst.Error("Expected ", ref, ", got", got)
	}
}

func TestMVNormalPrec(tst *testing.T) {
	s := NewSampler(5)
	prec := mat.NewSymDense(2, []float64{
		2, 0.5,
		0.5, 1,
	})
	var chol mat.Cholesky
	if !chol.Factorize(prec) {
		tst.Fatal("Error: cannot factorize precision")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		tst.Fatal("Error: ", err)
	}

	mean := []float64{1, -1}
	var s00, s01, s11, m0, m1 float64
	x := make([]float64, 2)
	for i := 0; i < nDraws; i++ {
		s.MVNormalPrec(mean, &chol, x)
		m0 += x[0]
		m1 += x[1]
		d0, d1 := x[0]-mean[0], x[1]-mean[1]
		s00 += d0 * d0
		s01 += d0 * d1
		s11 += d1 * d1
	}
	n := float64(nDraws)
	if math.Abs(m0/n-mean[0]) > smallDiff || math.Abs(m1/n-mean[1]) > smallDiff {
		tst.Error("Incorrect mean:", m0/n, m1/n)
	}
	for _, c := range []struct{ got, ref float64 }{
		{s00 / n, cov.At(0, 0)},
		{s01 / n, cov.At(0, 1)},
		{s11 / n, cov.At(1, 1)},
	} {
		if math.Abs(c.got-c.ref) > smallDiff {
			tst.Error("Expected covariance ", c.ref, ", got", c.got)
		}
	}
}

/*** Same seed gives the same stream ***/
func TestReplay(tst *testing.T) {
	s1 := NewSampler(42)
	s2 := NewSampler(42)
	for i := 0; i < 100; i++ {
		a := []float64{s1.Normal(), s1.InvGamma(3, 2), s1.Beta(2, 3), s1.TruncNormalPos(-1), s1.Sign()}
		b := []float64{s2.Normal(), s2.InvGamma(3, 2), s2.Beta(2, 3), s2.TruncNormalPos(-1), s2.Sign()}
		for j := range a {
			if a[j] != b[j] {
				tst.Fatalf("Draw %d/%d differs: %v != %v", i, j, a[j], b[j])
			}
		}
	}
}
