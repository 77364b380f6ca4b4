package sim

import (
	"bytes"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/tefactor/panel"
)

func TestGenerate(tst *testing.T) {
	res, err := Generate(Config{N: 50, TMax: 3, Onset: 1, Truth: DefaultTruth(3), Seed: 1})
	require.NoError(tst, err)
	p := res.Panel
	require.NoError(tst, p.Validate())
	require.Equal(tst, 150, p.NRecords())
	require.Len(tst, res.Theta, 50)

	treated := 0
	for i := 0; i < p.N; i++ {
		if p.D[i] {
			treated++
		}
		for r := p.Offset[i]; r < p.Offset[i+1]; r++ {
			exp := 0
			if p.D[i] && p.Period[r] >= 1 {
				exp = 1
			}
			require.Equal(tst, exp, p.Arm[r])
			require.Equal(tst, float64(exp), p.XPeriod.At(r, 0))
		}
	}
	require.True(tst, treated > 0 && treated < p.N, "treated=%d", treated)
}

func TestGenerateErrors(tst *testing.T) {
	_, err := Generate(Config{N: 0, TMax: 2, Truth: DefaultTruth(2)})
	require.Error(tst, err)
	_, err = Generate(Config{N: 10, TMax: 3, Truth: DefaultTruth(2)})
	require.Error(tst, err)
}

func TestWriteCSV(tst *testing.T) {
	logging.SetLevel(logging.WARNING, "panel")
	res, err := Generate(Config{N: 10, TMax: 2, Truth: DefaultTruth(2), Seed: 3})
	require.NoError(tst, err)

	var buf bytes.Buffer
	require.NoError(tst, WriteCSV(&buf, res.Panel))
	p, err := panel.ReadCSV(&buf, Columns(res.Panel))
	require.NoError(tst, err)

	require.Equal(tst, res.Panel.IDs, p.IDs)
	require.Equal(tst, res.Panel.Arm, p.Arm)
	require.Equal(tst, res.Panel.D, p.D)
	require.Equal(tst, res.Panel.Y, p.Y)
	require.Equal(tst, res.Panel.Z.RawMatrix().Data, p.Z.RawMatrix().Data)
	require.Equal(tst, res.Panel.Outcome().RawMatrix().Data, p.Outcome().RawMatrix().Data)
}
