package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/sampler"
)

func TestReadConfig(tst *testing.T) {
	cfg, err := readConfig("")
	require.NoError(tst, err)
	require.Equal(tst, defaultConfig(), cfg)

	fn := filepath.Join(tst.TempDir(), "run.yaml")
	data := `
columns:
  selection: [age, income]
  common: [x1]
  arm: post
sampler:
  burnin: 10
  selection_start: -1
  freeze_factor: true
prior:
  prec_y: 0.1
  weight: {a: 2, b: 3}
fixed_y: 2
start:
  gamma: [0, 1, 2]
  beta: [1, 0.5]
  sigma2: 0.3
`
	require.NoError(tst, os.WriteFile(fn, []byte(data), 0644))
	cfg, err = readConfig(fn)
	require.NoError(tst, err)

	require.Equal(tst, []string{"age", "income"}, cfg.Columns.Selection)
	require.Equal(tst, "post", cfg.Columns.Arm)
	// missing values keep defaults
	require.Equal(tst, "subject", cfg.Columns.Subject)
	require.True(tst, cfg.Columns.Intercept)
	require.Equal(tst, 10, cfg.Sampler.BurnIn)
	require.Equal(tst, 5000, cfg.Sampler.Draws)
	require.Equal(tst, -1, cfg.Sampler.SelectionStart)
	require.True(tst, cfg.Sampler.FreezeFactor)
	require.Equal(tst, 0.01, cfg.Prior.PrecX)
	require.Equal(tst, 0.1, cfg.Prior.PrecY)
	require.Equal(tst, sampler.BetaPrior{A: 2, B: 3}, cfg.Prior.Weight)
	require.Equal(tst, 1, cfg.FixedX)
	require.Equal(tst, 2, cfg.FixedY)
	require.NotNil(tst, cfg.Start)
	require.Equal(tst, []float64{0, 1, 2}, cfg.Start.Gamma)
	require.Equal(tst, 0.3, cfg.Start.Sigma2)

	bad := filepath.Join(tst.TempDir(), "bad.yaml")
	require.NoError(tst, os.WriteFile(bad, []byte("sampler: [1, 2"), 0644))
	_, err = readConfig(bad)
	require.Error(tst, err)
}

func TestNewRunSettings(tst *testing.T) {
	fn := filepath.Join(tst.TempDir(), "data.csv")
	require.NoError(tst, os.WriteFile(fn, []byte("subject\n"), 0644))
	_, err := app.Parse([]string{"--burnin=7", "--noselection", "--freezevar", "--fixedy=2", "--fixloadings", fn})
	require.NoError(tst, err)

	cfg := defaultConfig()
	cfg.Sampler.Draws = 11
	rs := newRunSettings(cfg, 2, 5)
	require.Equal(tst, 7, rs.settings.BurnIn)
	require.Equal(tst, 11, rs.settings.Draws)
	require.Equal(tst, -1, rs.settings.SelectionStart)
	require.True(tst, rs.settings.FreezeVariance)
	require.False(tst, rs.settings.FreezeFactor)
	require.Equal(tst, 100, rs.settings.Report)
	require.Equal(tst, 1, rs.chains)
	require.Equal(tst, 2, rs.threads)
	require.Equal(tst, uint64(5), rs.seed)

	p := &panel.Panel{TMax: 2}
	spec, err := panel.NewModelSpec(3, 3, p.TMax, cfg.FixedX, cfg.FixedY)
	require.NoError(tst, err)
	require.Equal(tst, []bool{true, true, false}, spec.FixedY)
	require.True(tst, cfg.FixLoadings)
}

func TestSummarize(tst *testing.T) {
	meta := sampler.Meta{
		BurnIn: 1,
		Total:  3,
		TMax:   1,
		ZNames: []string{"z"},
		YNames: []string{"x"},
	}
	a := sampler.NewArchive(meta)
	for i := 0; i < 3; i++ {
		d := sampler.Draw{
			Iter:      i,
			Gamma:     []float64{float64(i)},
			Delta:     1,
			Beta:      []float64{2},
			Lambda:    []float64{0, 1},
			IndX:      []bool{i == 2},
			IndY:      []bool{true},
			IndLambda: []bool{false, true},
			WX:        0.5,
			WY:        0.5,
			WLambda:   0.5,
			Sigma2:    [][panel.Arms]float64{{1, 2}},
			StdGamma:  []float64{0},
			StdBeta:   []float64{0},
		}
		require.NoError(tst, a.Append(d))
	}
	cs := summarize(a)
	require.Equal(tst, 2, cs.Draws)
	require.Equal(tst, 1.5, cs.Mean["gamma[z]"])
	require.Equal(tst, 0.5, cs.Inclusion["x[z]"])
	require.Equal(tst, 1.0, cs.Inclusion["y[x]"])
	require.Equal(tst, 0.0, cs.Inclusion["lambda[t=0,d=0]"])
	require.Equal(tst, 1.0, cs.Inclusion["lambda[t=0,d=1]"])
	require.Equal(tst, 2.0, cs.Mean["sigma2[t=0,d=1]"])
	_, ok := cs.Mean["ind_x[z]"]
	require.False(tst, ok)
}
