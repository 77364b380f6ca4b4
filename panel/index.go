package panel

// Index stores per-period membership of the records.
type Index struct {
	// Member[r][t] is true if record r belongs to period t.
	Member [][]bool
	// Cells[t][d] lists records of period t and arm d.
	Cells [][Arms][]int
	// Count[t][d] is the number of records of period t and arm d.
	Count [][Arms]int
}

// BuildIndex computes the record index of a panel.
func BuildIndex(p *Panel) *Index {
	nrec := p.NRecords()
	idx := &Index{
		Member: make([][]bool, nrec),
		Cells:  make([][Arms][]int, p.TMax),
		Count:  make([][Arms]int, p.TMax),
	}
	mem := make([]bool, nrec*p.TMax)
	for r := 0; r < nrec; r++ {
		idx.Member[r] = mem[r*p.TMax : (r+1)*p.TMax]
		t, d := p.Period[r], p.Arm[r]
		idx.Member[r][t] = true
		idx.Cells[t][d] = append(idx.Cells[t][d], r)
		idx.Count[t][d]++
	}
	return idx
}

// Pre returns the number of pre-treatment records in period t.
func (idx *Index) Pre(t int) int {
	return idx.Count[t][0]
}

// Post returns the number of post-treatment records in period t.
func (idx *Index) Post(t int) int {
	return idx.Count[t][1]
}
