// Package panel implements the panel dataset consumed by the sampler,
// the model specification and the per-period record index.
//
// A panel consists of N subjects, each observed in up to TMax periods.
// Every record belongs to a single (subject, period) cell and has an
// arm: 0 for pre-treatment (untreated) records and 1 for
// post-treatment (treated) records. The treatment itself is observed
// once per subject.
package panel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Arms is the number of treatment arms.
const Arms = 2

// Panel is a panel dataset sorted by subject, period and arm.
type Panel struct {
	// N is the number of subjects.
	N int
	// TMax is the number of periods.
	TMax int
	// IDs stores subject identifiers.
	IDs []string
	// TimeCount is the number of records for every subject.
	TimeCount []int
	// Offset[i] is the first record of subject i, Offset[N] is the
	// number of records.
	Offset []int

	// Subject, Period and Arm are per-record subject index, period
	// index (0-based) and arm (0 or 1).
	Subject []int
	Period  []int
	Arm     []int
	// Y is the outcome.
	Y []float64

	// D is the observed treatment for every subject.
	D []bool
	// Z is the treatment selection design (N×dx).
	Z *mat.Dense
	// XCommon are the common outcome covariates (nrec×kc).
	XCommon *mat.Dense
	// XPeriod are the period and treatment specific covariates
	// (nrec×kp), nil if there are none.
	XPeriod *mat.Dense

	// Names of the covariates.
	ZNames      []string
	CommonNames []string
	PeriodNames []string
}

// NRecords returns the number of records.
func (p *Panel) NRecords() int {
	return len(p.Y)
}

// DX returns the number of treatment selection covariates.
func (p *Panel) DX() int {
	_, c := p.Z.Dims()
	return c
}

// DY returns the number of outcome covariates.
func (p *Panel) DY() int {
	_, c := p.XCommon.Dims()
	if p.XPeriod != nil {
		_, kp := p.XPeriod.Dims()
		c += kp
	}
	return c
}

// Outcome returns the outcome covariates, common covariates followed
// by the period specific ones.
func (p *Panel) Outcome() *mat.Dense {
	if p.XPeriod == nil {
		return mat.DenseCopyOf(p.XCommon)
	}
	n, kc := p.XCommon.Dims()
	_, kp := p.XPeriod.Dims()
	x := mat.NewDense(n, kc+kp, nil)
	x.Slice(0, n, 0, kc).(*mat.Dense).Copy(p.XCommon)
	x.Slice(0, n, kc, kc+kp).(*mat.Dense).Copy(p.XPeriod)
	return x
}

// OutcomeNames returns names of the outcome covariates in the order
// used by Outcome.
func (p *Panel) OutcomeNames() []string {
	names := make([]string, 0, p.DY())
	names = append(names, p.CommonNames...)
	return append(names, p.PeriodNames...)
}

// Counts returns the number of pre-treatment and post-treatment
// records.
func (p *Panel) Counts() (pre, post int) {
	for _, a := range p.Arm {
		if a == 0 {
			pre++
		} else {
			post++
		}
	}
	return
}

// Validate checks the panel invariants. It returns an error
// describing the first violation found.
func (p *Panel) Validate() error {
	if p.N <= 0 {
		return errors.New("panel has no subjects")
	}
	if p.TMax <= 0 {
		return errors.New("panel has no periods")
	}
	if p.Z == nil || p.XCommon == nil {
		return errors.New("panel has no design matrices")
	}
	nrec := p.NRecords()
	if len(p.TimeCount) != p.N || len(p.D) != p.N {
		return fmt.Errorf("subject arrays length mismatch (N=%d)", p.N)
	}
	if len(p.Offset) != p.N+1 || p.Offset[0] != 0 || p.Offset[p.N] != nrec {
		return errors.New("subject offsets are inconsistent with the number of records")
	}
	if len(p.Subject) != nrec || len(p.Period) != nrec || len(p.Arm) != nrec {
		return fmt.Errorf("record arrays length mismatch (records=%d)", nrec)
	}
	if r, _ := p.Z.Dims(); r != p.N {
		return fmt.Errorf("selection design has %d rows, expected %d", r, p.N)
	}
	if r, _ := p.XCommon.Dims(); r != nrec {
		return fmt.Errorf("common design has %d rows, expected %d", r, nrec)
	}
	if p.XPeriod != nil {
		if r, _ := p.XPeriod.Dims(); r != nrec {
			return fmt.Errorf("period design has %d rows, expected %d", r, nrec)
		}
	}

	for i := 0; i < p.N; i++ {
		if p.Offset[i+1]-p.Offset[i] != p.TimeCount[i] {
			return fmt.Errorf("subject %d: time count %d doesn't match offsets", i, p.TimeCount[i])
		}
		if p.TimeCount[i] > p.TMax {
			return fmt.Errorf("subject %d: %d records exceed %d periods", i, p.TimeCount[i], p.TMax)
		}
		for r := p.Offset[i]; r < p.Offset[i+1]; r++ {
			if p.Subject[r] != i {
				return fmt.Errorf("record %d: subject %d, expected %d", r, p.Subject[r], i)
			}
			if p.Period[r] < 0 || p.Period[r] >= p.TMax {
				return fmt.Errorf("record %d: period %d out of range", r, p.Period[r])
			}
			if r > p.Offset[i] && p.Period[r] <= p.Period[r-1] {
				return fmt.Errorf("record %d: subject %d has unsorted or repeated period %d", r, i, p.Period[r])
			}
		}
	}

	pre, post := 0, 0
	for r, a := range p.Arm {
		switch a {
		case 0:
			pre++
		case 1:
			post++
		default:
			return fmt.Errorf("record %d: arm %d is not 0 or 1", r, a)
		}
	}
	if pre+post != nrec {
		return fmt.Errorf("pre (%d) and post (%d) records don't add up to %d", pre, post, nrec)
	}
	return nil
}
