package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/sampler"
	"bitbucket.org/Davydov/tefactor/sim"
	"bitbucket.org/Davydov/tefactor/start"
)

func setLogLevel() {
	for _, module := range []string{"sampler", "panel", "start", "blr", "store"} {
		logging.SetLevel(logging.WARNING, module)
	}
}

// testRun runs a short chain recording into rec.
func testRun(tst *testing.T, rec sampler.Recorder) *sampler.Archive {
	setLogLevel()
	res, err := sim.Generate(sim.Config{N: 15, TMax: 2, Truth: sim.DefaultTruth(2), Seed: 5})
	require.NoError(tst, err)
	p := res.Panel
	spec, err := panel.NewModelSpec(p.DX(), p.DY(), p.TMax, 1, 1)
	require.NoError(tst, err)
	m, err := sampler.NewModel(p, spec, sampler.DefaultPrior(spec))
	require.NoError(tst, err)
	v, err := start.Compute(p)
	require.NoError(tst, err)
	s, err := sampler.New(m, v, sampler.Settings{BurnIn: 5, Draws: 10, SelectionStart: 3}, 1)
	require.NoError(tst, err)
	s.SetChain("run", 2)
	if rec != nil {
		s.SetRecorder(rec)
	}
	a, err := s.Run()
	require.NoError(tst, err)
	return a
}

func openBolt(tst *testing.T) *bolt.DB {
	db, err := bolt.Open(filepath.Join(tst.TempDir(), "test.db"), 0600, &bolt.Options{Timeout: time.Second})
	require.NoError(tst, err)
	tst.Cleanup(func() { db.Close() })
	return db
}

func TestBoltRoundTrip(tst *testing.T) {
	db := openBolt(tst)
	// a large period makes Record buffer everything until Flush
	bio := NewBoltIO(db, 3600)
	a := testRun(tst, bio)

	_, err := LoadArchive(db, "run", 2)
	require.NoError(tst, err)

	require.NoError(tst, bio.Flush())
	b, err := LoadArchive(db, "run", 2)
	require.NoError(tst, err)

	require.Equal(tst, a.Meta, b.Meta)
	require.Equal(tst, a.Rows(), b.Rows())
	if diff := cmp.Diff(a.Draws(), b.Draws()); diff != "" {
		tst.Error("Loaded archive differs (-saved +loaded):\n", diff)
	}

	metas, err := Chains(db)
	require.NoError(tst, err)
	require.Len(tst, metas, 1)
	require.Equal(tst, 2, metas[0].Chain)

	_, err = LoadArchive(db, "run", 3)
	require.ErrorIs(tst, err, ErrNotFound)
}

func TestBoltBuffering(tst *testing.T) {
	db := openBolt(tst)
	bio := NewBoltIO(db, 3600)
	testRun(tst, bio)

	a, err := LoadArchive(db, "run", 2)
	require.NoError(tst, err)
	require.Equal(tst, 0, a.Rows())

	// negative period saves every draw immediately
	db2 := openBolt(tst)
	bio2 := NewBoltIO(db2, -1)
	full := testRun(tst, bio2)
	a, err = LoadArchive(db2, "run", 2)
	require.NoError(tst, err)
	require.Equal(tst, full.Rows(), a.Rows())
}

func TestLoadData(tst *testing.T) {
	db := openBolt(tst)
	v, err := LoadData(db, META, []byte("missing"))
	require.NoError(tst, err)
	require.Nil(tst, v)

	require.NoError(tst, SaveData(db, META, []byte("k"), []byte("value")))
	v, err = LoadData(db, META, []byte("k"))
	require.NoError(tst, err)
	require.Equal(tst, []byte("value"), v)

	v, err = LoadData(nil, META, []byte("k"))
	require.NoError(tst, err)
	require.Nil(tst, v)
}

func TestExportSQLite(tst *testing.T) {
	a := testRun(tst, nil)
	path := filepath.Join(tst.TempDir(), "draws.sqlite")
	ctx := context.Background()
	require.NoError(tst, ExportSQLite(ctx, path, []*sampler.Archive{a, nil}))
	// exporting twice replaces the rows
	require.NoError(tst, ExportSQLite(ctx, path, []*sampler.Archive{a}))

	db, err := sql.Open("sqlite", path)
	require.NoError(tst, err)
	defer db.Close()

	var n int
	require.NoError(tst, db.QueryRow(`SELECT COUNT(*) FROM draws WHERE run_id = ? AND chain = ?`, "run", 2).Scan(&n))
	require.Equal(tst, a.Rows()*len(a.Names()), n)

	var w float64
	require.NoError(tst, db.QueryRow(`SELECT value FROM draws WHERE iter = 7 AND name = 'w_lambda'`).Scan(&w))
	require.Equal(tst, a.Draws()[7].WLambda, w)

	var seed string
	require.NoError(tst, db.QueryRow(`SELECT seed FROM chains WHERE run_id = 'run'`).Scan(&seed))
	require.Equal(tst, "1", seed)

	require.Error(tst, ExportSQLite(ctx, " ", nil))
}
