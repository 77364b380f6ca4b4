package sampler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bitbucket.org/Davydov/tefactor/dist"
	"bitbucket.org/Davydov/tefactor/start"
)

// ChainSettings stores settings of a multi-chain run.
type ChainSettings struct {
	// Chains is the number of chains.
	Chains int
	// Threads is the maximum number of chains run in parallel.
	Threads int
	// Seed initializes the generator of the chain seeds.
	Seed uint64
	// Recorder returns the recorder of a chain, it can be nil.
	Recorder func(chain int) Recorder
}

// ChainSeeds derives chain seeds from a master seed.
func ChainSeeds(seed uint64, chains int) []uint64 {
	master := dist.NewSampler(seed)
	seeds := make([]uint64, chains)
	for c := range seeds {
		seeds[c] = master.Uint64()
	}
	return seeds
}

// RunChains runs independent chains in parallel. All the chains
// share a run identifier. Chains are never interrupted; chains which
// have not started yet are skipped if ctx is cancelled or another
// chain fails.
func RunChains(ctx context.Context, m *Model, v *start.Values, set Settings, cs ChainSettings) ([]*Archive, error) {
	runID := RunID(m, set, cs.Seed)
	seeds := ChainSeeds(cs.Seed, cs.Chains)
	archives := make([]*Archive, cs.Chains)

	g, ctx := errgroup.WithContext(ctx)
	if cs.Threads > 0 {
		g.SetLimit(cs.Threads)
	}
	log.Infof("Run %s: %d chains, %d threads", runID, cs.Chains, cs.Threads)
	for c := 0; c < cs.Chains; c++ {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := New(m, v, set, seeds[c])
			if err != nil {
				return err
			}
			s.SetChain(runID, c)
			if cs.Recorder != nil {
				s.SetRecorder(cs.Recorder(c))
			}
			a, err := s.Run()
			archives[c] = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return archives, err
	}
	return archives, nil
}
