package panel

import (
	"strings"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/require"
)

func setLogLevel() {
	logging.SetLevel(logging.WARNING, "panel")
}

const testCSV = `subject,period,treated,y,age,income,dose
a,2001,1,1.5,30,2.0,0.1
a,2000,1,1.0,30,1.0,0.0
b,2000,0,0.5,45,3.0,0.0
b,2001,0,0.7,45,3.5,0.0
c,2001,1,2.5,25,1.0,0.3
`

func testColumns() Columns {
	cols := DefaultColumns()
	cols.Selection = []string{"age"}
	cols.Common = []string{"income"}
	cols.Specific = []string{"dose"}
	return cols
}

func TestReadCSV(tst *testing.T) {
	setLogLevel()
	p, err := ReadCSV(strings.NewReader(testCSV), testColumns())
	require.NoError(tst, err)

	require.Equal(tst, 3, p.N)
	require.Equal(tst, 2, p.TMax)
	require.Equal(tst, 5, p.NRecords())
	require.Equal(tst, []string{"a", "b", "c"}, p.IDs)
	require.Equal(tst, []int{2, 2, 1}, p.TimeCount)
	require.Equal(tst, []int{0, 2, 4, 5}, p.Offset)
	require.Equal(tst, []int{0, 1, 0, 1, 1}, p.Period)
	require.Equal(tst, []int{1, 1, 0, 0, 1}, p.Arm)
	require.Equal(tst, []bool{true, false, true}, p.D)
	require.Equal(tst, []float64{1.0, 1.5, 0.5, 0.7, 2.5}, p.Y)

	require.Equal(tst, 2, p.DX())
	require.Equal(tst, 3, p.DY())
	require.Equal(tst, []string{InterceptName, "income", "dose"}, p.OutcomeNames())
	require.Equal(tst, 1.0, p.Z.At(1, 0))
	require.Equal(tst, 45.0, p.Z.At(1, 1))

	x := p.Outcome()
	require.Equal(tst, 1.0, x.At(0, 0))
	require.Equal(tst, 1.0, x.At(0, 1))
	require.Equal(tst, 0.0, x.At(0, 2))
	require.Equal(tst, 0.3, x.At(4, 2))

	pre, post := p.Counts()
	require.Equal(tst, 2, pre)
	require.Equal(tst, 3, post)
}

func TestReadCSVArmColumn(tst *testing.T) {
	setLogLevel()
	data := `id,t,d,arm,out
1,0,1,0,1
1,1,1,1,2
2,0,0,0,3
`
	cols := Columns{Subject: "id", Period: "t", Treated: "d", Arm: "arm", Outcome: "out", Intercept: true}
	p, err := ReadCSV(strings.NewReader(data), cols)
	require.NoError(tst, err)
	require.Equal(tst, []int{0, 1, 0}, p.Arm)
	require.Nil(tst, p.XPeriod)
	require.Equal(tst, 1, p.DY())
}

func TestReadCSVErrors(tst *testing.T) {
	setLogLevel()
	cases := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing column", "subject,period,treated\n"},
		{"no records", "subject,period,treated,y,age,income,dose\n"},
		{"bad period", "subject,period,treated,y,age,income,dose\na,x,1,1,1,1,1\n"},
		{"bad outcome", "subject,period,treated,y,age,income,dose\na,1,1,z,1,1,1\n"},
		{"bad treatment", "subject,period,treated,y,age,income,dose\na,1,2,1,1,1,1\n"},
		{"varying treatment", "subject,period,treated,y,age,income,dose\na,1,1,1,1,1,1\na,2,0,1,1,1,1\n"},
		{"varying selection covariate", "subject,period,treated,y,age,income,dose\na,1,1,1,1,1,1\na,2,1,1,2,1,1\n"},
		{"repeated period", "subject,period,treated,y,age,income,dose\na,1,1,1,1,1,1\na,1,1,1,1,1,1\n"},
	}
	for _, c := range cases {
		_, err := ReadCSV(strings.NewReader(c.data), testColumns())
		require.Error(tst, err, c.name)
	}
}

func TestValidate(tst *testing.T) {
	setLogLevel()
	p, err := ReadCSV(strings.NewReader(testCSV), testColumns())
	require.NoError(tst, err)
	require.NoError(tst, p.Validate())

	p.Arm[0] = 2
	require.Error(tst, p.Validate())
	p.Arm[0] = 1

	p.Period[4] = 2
	require.Error(tst, p.Validate())
	p.Period[4] = 1

	p.TimeCount[0] = 1
	require.Error(tst, p.Validate())
}

func TestBuildIndex(tst *testing.T) {
	setLogLevel()
	p, err := ReadCSV(strings.NewReader(testCSV), testColumns())
	require.NoError(tst, err)
	idx := BuildIndex(p)

	require.Len(tst, idx.Member, p.NRecords())
	for r := range idx.Member {
		n := 0
		for t, in := range idx.Member[r] {
			if in {
				n++
				require.Equal(tst, p.Period[r], t)
			}
		}
		require.Equal(tst, 1, n, "record %d", r)
	}

	require.Equal(tst, [][Arms]int{{1, 1}, {1, 2}}, idx.Count)
	require.Equal(tst, []int{0}, idx.Cells[0][1])
	require.Equal(tst, []int{1, 4}, idx.Cells[1][1])

	total := 0
	for t := 0; t < p.TMax; t++ {
		total += idx.Pre(t) + idx.Post(t)
	}
	require.Equal(tst, p.NRecords(), total)
}

func TestModelSpec(tst *testing.T) {
	spec, err := NewModelSpec(3, 4, 2, 1, 2)
	require.NoError(tst, err)
	require.Equal(tst, []bool{true, false, false}, spec.FixedX)
	require.Equal(tst, []bool{true, true, false, false}, spec.FixedY)
	require.Equal(tst, []bool{false, false, false, false}, spec.FixedLoading)
	require.Equal(tst, 3, spec.LoadingIndex(1, 1))

	spec.FixLoadings()
	require.Equal(tst, []bool{true, true, true, true}, spec.FixedLoading)

	_, err = NewModelSpec(3, 4, 2, 4, 0)
	require.Error(tst, err)
	_, err = NewModelSpec(3, 4, 2, 0, -1)
	require.Error(tst, err)
}

func TestModelSpecCheck(tst *testing.T) {
	setLogLevel()
	p, err := ReadCSV(strings.NewReader(testCSV), testColumns())
	require.NoError(tst, err)
	spec, err := NewModelSpec(p.DX(), p.DY(), p.TMax, 1, 1)
	require.NoError(tst, err)
	require.NoError(tst, spec.Check(p))

	spec.DY++
	require.Error(tst, spec.Check(p))
}
