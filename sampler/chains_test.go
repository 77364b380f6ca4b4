package sampler

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

// countRecorder counts recorded draws.
type countRecorder struct {
	sync.Mutex
	rows map[int]int
	ids  map[string]bool
}

func (c *countRecorder) Record(meta *Meta, d *Draw) error {
	c.Lock()
	defer c.Unlock()
	c.rows[meta.Chain]++
	c.ids[meta.RunID] = true
	return nil
}

func TestRunChains(tst *testing.T) {
	defer goleak.VerifyNone(tst)
	m, v := smallModel(tst)
	set := testSettings()
	rec := &countRecorder{rows: map[int]int{}, ids: map[string]bool{}}
	cs := ChainSettings{
		Chains:   3,
		Threads:  2,
		Seed:     7,
		Recorder: func(int) Recorder { return rec },
	}
	archives, err := RunChains(context.Background(), m, v, set, cs)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(archives) != 3 {
		tst.Fatal("Expected 3 archives, got", len(archives))
	}
	seeds := ChainSeeds(7, 3)
	for c, a := range archives {
		if a.Chain != c || a.Seed != seeds[c] {
			tst.Error("Chain ", c, ": wrong metadata ", a.Chain, a.Seed)
		}
		if a.RunID != archives[0].RunID {
			tst.Error("Chains have different run ids")
		}
		if rec.rows[c] != set.Total() {
			tst.Error("Chain ", c, ": recorded ", rec.rows[c], " rows")
		}
	}
	if len(rec.ids) != 1 {
		tst.Error("Expected a single run id, got", len(rec.ids))
	}
	if archives[0].RunID != RunID(m, set, 7) {
		tst.Error("Run id doesn't depend only on the seed and the run settings")
	}
	if cmp.Equal(archives[0].Draws(), archives[1].Draws()) {
		tst.Error("Chains are identical")
	}

	// a single chain with the same seed replays the parallel one
	a := run(tst, m, v, set, seeds[1])
	if diff := cmp.Diff(archives[1].Draws(), a.Draws()); diff != "" {
		tst.Error("Chain doesn't replay (-parallel +sequential):\n", diff)
	}
}

func TestRunChainsCancelled(tst *testing.T) {
	defer goleak.VerifyNone(tst)
	m, v := smallModel(tst)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunChains(ctx, m, v, testSettings(), ChainSettings{Chains: 2, Threads: 1})
	if err == nil {
		tst.Error("Expected an error for a cancelled context")
	}
}

func TestChainSeeds(tst *testing.T) {
	s1 := ChainSeeds(1, 4)
	s2 := ChainSeeds(1, 4)
	if diff := cmp.Diff(s1, s2); diff != "" {
		tst.Error("Seeds differ:\n", diff)
	}
	seen := map[uint64]bool{}
	for _, s := range s1 {
		if seen[s] {
			tst.Error("Repeated seed ", s)
		}
		seen[s] = true
	}
}
