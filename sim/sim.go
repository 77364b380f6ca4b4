// Package sim generates synthetic panels with a known shared factor.
package sim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/tefactor/dist"
	"bitbucket.org/Davydov/tefactor/panel"
)

// Truth stores parameters used to generate a panel.
type Truth struct {
	// Gamma are the selection coefficients, the first one
	// multiplies the intercept.
	Gamma []float64 `yaml:"gamma"`
	// Delta is the selection factor loading.
	Delta float64 `yaml:"delta"`
	// Common are the common outcome coefficients, the first one
	// multiplies the intercept.
	Common []float64 `yaml:"common"`
	// Specific are the coefficients of the period specific
	// covariates. The first specific covariate is the arm
	// indicator, the rest are standard normal covariates of the
	// post-treatment records.
	Specific []float64 `yaml:"specific"`
	// Lambda are the outcome loadings, Lambda[t][d].
	Lambda [][panel.Arms]float64 `yaml:"lambda"`
	// Sigma2 are the idiosyncratic variances, Sigma2[t][d].
	Sigma2 [][panel.Arms]float64 `yaml:"sigma2"`
}

// Config stores simulation settings.
type Config struct {
	// N is the number of subjects.
	N int
	// TMax is the number of periods.
	TMax int
	// Onset is the first post-treatment period of treated
	// subjects.
	Onset int
	// Truth are the true parameter values.
	Truth Truth
	// Seed initializes the random generator.
	Seed uint64
}

// DefaultTruth returns parameters with a zero loading in the first
// period and a strong loading in the remaining periods.
func DefaultTruth(tmax int) Truth {
	t := Truth{
		Gamma:    []float64{0, 1},
		Delta:    1,
		Common:   []float64{1, 0.5},
		Specific: []float64{1},
		Lambda:   make([][panel.Arms]float64, tmax),
		Sigma2:   make([][panel.Arms]float64, tmax),
	}
	for i := range t.Lambda {
		if i > 0 {
			t.Lambda[i] = [panel.Arms]float64{2, 2}
		}
		t.Sigma2[i] = [panel.Arms]float64{0.25, 0.25}
	}
	return t
}

// Result stores a generated panel and the realized factor.
type Result struct {
	Panel *panel.Panel
	// Theta is the factor value of every subject.
	Theta []float64
}

// Generate simulates a balanced panel.
func Generate(cfg Config) (*Result, error) {
	tr := cfg.Truth
	if cfg.N <= 0 || cfg.TMax <= 0 {
		return nil, errors.New("number of subjects and periods must be positive")
	}
	if len(tr.Gamma) == 0 || len(tr.Common) == 0 {
		return nil, errors.New("selection and common coefficients must include the intercept")
	}
	if len(tr.Lambda) != cfg.TMax || len(tr.Sigma2) != cfg.TMax {
		return nil, fmt.Errorf("loadings and variances must have %d periods", cfg.TMax)
	}
	s := dist.NewSampler(cfg.Seed)

	n, tmax := cfg.N, cfg.TMax
	nrec := n * tmax
	dx, kc, kp := len(tr.Gamma), len(tr.Common), len(tr.Specific)
	p := &panel.Panel{
		N:         n,
		TMax:      tmax,
		IDs:       make([]string, n),
		TimeCount: make([]int, n),
		Offset:    make([]int, n+1),
		Subject:   make([]int, nrec),
		Period:    make([]int, nrec),
		Arm:       make([]int, nrec),
		Y:         make([]float64, nrec),
		D:         make([]bool, n),
		Z:         mat.NewDense(n, dx, nil),
		XCommon:   mat.NewDense(nrec, kc, nil),
	}
	if kp > 0 {
		p.XPeriod = mat.NewDense(nrec, kp, nil)
	}
	p.ZNames = names(dx, "z")
	p.CommonNames = names(kc, "x")
	for j := 0; j < kp; j++ {
		if j == 0 {
			p.PeriodNames = append(p.PeriodNames, "arm")
		} else {
			p.PeriodNames = append(p.PeriodNames, "w"+strconv.Itoa(j))
		}
	}

	theta := make([]float64, n)
	for i := 0; i < n; i++ {
		theta[i] = s.Normal()
		zrow := p.Z.RawRowView(i)
		zrow[0] = 1
		for j := 1; j < dx; j++ {
			zrow[j] = s.Normal()
		}
		u := tr.Delta*theta[i] + s.Normal()
		for j := range zrow {
			u += zrow[j] * tr.Gamma[j]
		}
		p.D[i] = u > 0
		p.IDs[i] = strconv.Itoa(i + 1)
		p.TimeCount[i] = tmax
		p.Offset[i] = i * tmax

		for t := 0; t < tmax; t++ {
			r := i*tmax + t
			p.Subject[r] = i
			p.Period[r] = t
			if p.D[i] && t >= cfg.Onset {
				p.Arm[r] = 1
			}
			d := p.Arm[r]
			mean := tr.Lambda[t][d] * theta[i]
			crow := p.XCommon.RawRowView(r)
			crow[0] = 1
			for j := 1; j < kc; j++ {
				crow[j] = s.Normal()
			}
			for j := range crow {
				mean += crow[j] * tr.Common[j]
			}
			if kp > 0 {
				prow := p.XPeriod.RawRowView(r)
				prow[0] = float64(d)
				for j := 1; j < kp; j++ {
					prow[j] = float64(d) * s.Normal()
				}
				for j := range prow {
					mean += prow[j] * tr.Specific[j]
				}
			}
			p.Y[r] = mean + math.Sqrt(tr.Sigma2[t][d])*s.Normal()
		}
	}
	p.Offset[n] = nrec

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Result{Panel: p, Theta: theta}, nil
}

// names returns covariate names, the first one being the intercept.
func names(k int, prefix string) []string {
	v := []string{panel.InterceptName}
	for j := 1; j < k; j++ {
		v = append(v, prefix+strconv.Itoa(j))
	}
	return v
}

// Columns returns the column mapping of a CSV written by WriteCSV.
func Columns(p *panel.Panel) panel.Columns {
	cols := panel.DefaultColumns()
	cols.Arm = "arm_d"
	cols.Selection = p.ZNames[1:]
	cols.Common = p.CommonNames[1:]
	cols.Specific = p.PeriodNames
	return cols
}

// WriteCSV writes a panel with intercepts in the long format read by
// panel.ReadCSV.
func WriteCSV(w io.Writer, p *panel.Panel) error {
	cw := csv.NewWriter(w)
	cols := Columns(p)
	header := []string{cols.Subject, cols.Period, cols.Treated, cols.Arm, cols.Outcome}
	header = append(header, cols.Selection...)
	header = append(header, cols.Common...)
	header = append(header, cols.Specific...)
	if err := cw.Write(header); err != nil {
		return err
	}
	format := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	row := make([]string, 0, len(header))
	for r := 0; r < p.NRecords(); r++ {
		i := p.Subject[r]
		treated := "0"
		if p.D[i] {
			treated = "1"
		}
		row = row[:0]
		row = append(row, p.IDs[i], strconv.Itoa(p.Period[r]), treated, strconv.Itoa(p.Arm[r]), format(p.Y[r]))
		for _, v := range p.Z.RawRowView(i)[1:] {
			row = append(row, format(v))
		}
		for _, v := range p.XCommon.RawRowView(r)[1:] {
			row = append(row, format(v))
		}
		if p.XPeriod != nil {
			for _, v := range p.XPeriod.RawRowView(r) {
				row = append(row, format(v))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
