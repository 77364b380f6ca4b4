package panel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// InterceptName is the name of the constant covariate.
const InterceptName = "(intercept)"

// Columns maps CSV columns to the panel fields.
type Columns struct {
	// Subject identifies a subject.
	Subject string `yaml:"subject"`
	// Period is an integer period label.
	Period string `yaml:"period"`
	// Treated is the observed subject treatment (0/1).
	Treated string `yaml:"treated"`
	// Arm is the record arm (0/1). If empty, every record of a
	// treated subject belongs to arm 1.
	Arm string `yaml:"arm"`
	// Outcome is the outcome variable.
	Outcome string `yaml:"outcome"`
	// Selection are the treatment selection covariates.
	Selection []string `yaml:"selection"`
	// Common are the common outcome covariates.
	Common []string `yaml:"common"`
	// Specific are the period and treatment specific covariates.
	Specific []string `yaml:"specific"`
	// Intercept adds a constant to the selection and the common
	// outcome covariates.
	Intercept bool `yaml:"intercept"`
}

// DefaultColumns returns the default column names.
func DefaultColumns() Columns {
	return Columns{
		Subject:   "subject",
		Period:    "period",
		Treated:   "treated",
		Outcome:   "y",
		Intercept: true,
	}
}

// record is one parsed CSV row.
type record struct {
	period  int
	arm     int
	y       float64
	treated bool
	z       []float64
	xc      []float64
	xp      []float64
}

// subjectRecords stores all records of a subject.
type subjectRecords struct {
	id      string
	records []record
}

// columnIndex returns positions of the named columns in the header.
func columnIndex(header map[string]int, names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, ok := header[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		idx[i] = j
	}
	return idx, nil
}

// parseFloats parses the given row fields.
func parseFloats(row []string, idx []int) ([]float64, error) {
	v := make([]float64, len(idx))
	for i, j := range idx {
		f, err := strconv.ParseFloat(row[j], 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

// parseBinary parses 0/1 (or true/false) values.
func parseBinary(s string) (int, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return 0, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// ReadCSV reads a long-format panel (one row per subject and period)
// from r. Subject level columns are taken from the first record of
// every subject and must be constant within a subject. Periods are
// relabelled to 0-based indices, subjects are kept in the order of
// their first appearance, records are sorted by period and arm.
func ReadCSV(r io.Reader, cols Columns) (*Panel, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	hrow, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty CSV input")
		}
		return nil, err
	}
	header := make(map[string]int, len(hrow))
	for i, name := range hrow {
		header[name] = i
	}

	single, err := columnIndex(header, []string{cols.Subject, cols.Period, cols.Treated, cols.Outcome})
	if err != nil {
		return nil, err
	}
	armCol := -1
	if cols.Arm != "" {
		a, err := columnIndex(header, []string{cols.Arm})
		if err != nil {
			return nil, err
		}
		armCol = a[0]
	}
	zIdx, err := columnIndex(header, cols.Selection)
	if err != nil {
		return nil, err
	}
	cIdx, err := columnIndex(header, cols.Common)
	if err != nil {
		return nil, err
	}
	pIdx, err := columnIndex(header, cols.Specific)
	if err != nil {
		return nil, err
	}

	var subjects []*subjectRecords
	byID := make(map[string]*subjectRecords)
	periods := make(map[int]bool)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		var rec record
		id := row[single[0]]
		if rec.period, err = strconv.Atoi(row[single[1]]); err != nil {
			return nil, fmt.Errorf("line %d: period: %v", line, err)
		}
		treated, err := parseBinary(row[single[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: treatment: %v", line, err)
		}
		rec.treated = treated == 1
		if rec.y, err = strconv.ParseFloat(row[single[3]], 64); err != nil {
			return nil, fmt.Errorf("line %d: outcome: %v", line, err)
		}
		rec.arm = treated
		if armCol >= 0 {
			if rec.arm, err = parseBinary(row[armCol]); err != nil {
				return nil, fmt.Errorf("line %d: arm: %v", line, err)
			}
		}
		if rec.z, err = parseFloats(row, zIdx); err != nil {
			return nil, fmt.Errorf("line %d: selection covariates: %v", line, err)
		}
		if rec.xc, err = parseFloats(row, cIdx); err != nil {
			return nil, fmt.Errorf("line %d: common covariates: %v", line, err)
		}
		if rec.xp, err = parseFloats(row, pIdx); err != nil {
			return nil, fmt.Errorf("line %d: specific covariates: %v", line, err)
		}

		sr, ok := byID[id]
		if !ok {
			sr = &subjectRecords{id: id}
			byID[id] = sr
			subjects = append(subjects, sr)
		} else {
			first := sr.records[0]
			if first.treated != rec.treated {
				return nil, fmt.Errorf("line %d: subject %s treatment is not constant", line, id)
			}
			for j := range rec.z {
				if first.z[j] != rec.z[j] {
					return nil, fmt.Errorf("line %d: subject %s selection covariate %s is not constant", line, id, cols.Selection[j])
				}
			}
		}
		sr.records = append(sr.records, rec)
		periods[rec.period] = true
	}
	if len(subjects) == 0 {
		return nil, errors.New("no records found")
	}

	labels := make([]int, 0, len(periods))
	for t := range periods {
		labels = append(labels, t)
	}
	sort.Ints(labels)
	relabel := make(map[int]int, len(labels))
	for i, t := range labels {
		relabel[t] = i
	}

	return build(subjects, relabel, len(labels), cols)
}

// build creates a panel from the parsed records.
func build(subjects []*subjectRecords, relabel map[int]int, tmax int, cols Columns) (*Panel, error) {
	nrec := 0
	for _, sr := range subjects {
		sort.SliceStable(sr.records, func(a, b int) bool {
			ra, rb := sr.records[a], sr.records[b]
			if ra.period != rb.period {
				return ra.period < rb.period
			}
			return ra.arm < rb.arm
		})
		nrec += len(sr.records)
	}

	ic := 0
	if cols.Intercept {
		ic = 1
	}
	dx := len(cols.Selection) + ic
	kc := len(cols.Common) + ic
	kp := len(cols.Specific)
	n := len(subjects)
	if dx == 0 {
		return nil, errors.New("no treatment selection covariates")
	}
	if kc == 0 {
		return nil, errors.New("no common outcome covariates")
	}

	p := &Panel{
		N:         n,
		TMax:      tmax,
		IDs:       make([]string, n),
		TimeCount: make([]int, n),
		Offset:    make([]int, n+1),
		Subject:   make([]int, 0, nrec),
		Period:    make([]int, 0, nrec),
		Arm:       make([]int, 0, nrec),
		Y:         make([]float64, 0, nrec),
		D:         make([]bool, n),
		Z:         mat.NewDense(n, dx, nil),
		XCommon:   mat.NewDense(nrec, kc, nil),
	}
	if kp > 0 {
		p.XPeriod = mat.NewDense(nrec, kp, nil)
	}
	if cols.Intercept {
		p.ZNames = append(p.ZNames, InterceptName)
		p.CommonNames = append(p.CommonNames, InterceptName)
	}
	p.ZNames = append(p.ZNames, cols.Selection...)
	p.CommonNames = append(p.CommonNames, cols.Common...)
	p.PeriodNames = append(p.PeriodNames, cols.Specific...)

	r := 0
	for i, sr := range subjects {
		p.IDs[i] = sr.id
		p.TimeCount[i] = len(sr.records)
		p.Offset[i] = r
		first := sr.records[0]
		p.D[i] = first.treated
		zrow := p.Z.RawRowView(i)
		if cols.Intercept {
			zrow[0] = 1
		}
		copy(zrow[ic:], first.z)
		for _, rec := range sr.records {
			p.Subject = append(p.Subject, i)
			p.Period = append(p.Period, relabel[rec.period])
			p.Arm = append(p.Arm, rec.arm)
			p.Y = append(p.Y, rec.y)
			crow := p.XCommon.RawRowView(r)
			if cols.Intercept {
				crow[0] = 1
			}
			copy(crow[ic:], rec.xc)
			if kp > 0 {
				copy(p.XPeriod.RawRowView(r), rec.xp)
			}
			r++
		}
	}
	p.Offset[n] = r

	if err := p.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Read panel: %d subjects, %d periods, %d records", p.N, p.TMax, p.NRecords())
	return p, nil
}
