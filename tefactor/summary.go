package main

import (
	"strings"

	"bitbucket.org/Davydov/tefactor/sampler"
)

// CallSummary stores information on the program call.
type CallSummary struct {
	// Version stores tefactor version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed uint64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computations time in seconds.
	TotalTime float64 `json:"time"`
}

// DataSummary describes the panel.
type DataSummary struct {
	Subjects int `json:"subjects"`
	Periods  int `json:"periods"`
	Records  int `json:"records"`
	Treated  int `json:"treated"`
}

// ChainSummary summarizes draws of a chain after burn-in.
type ChainSummary struct {
	Chain int    `json:"chain"`
	Seed  uint64 `json:"seed"`
	// Draws is the number of summarized draws.
	Draws int `json:"draws"`
	// Inclusion are the posterior inclusion frequencies.
	Inclusion map[string]float64 `json:"inclusion"`
	// Mean are the posterior means.
	Mean map[string]float64 `json:"mean"`
}

// RunSummary is storing tefactor run summary information.
type RunSummary struct {
	CallSummary
	// RunID identifies the run.
	RunID string `json:"runId"`
	// Data describes the panel.
	Data DataSummary `json:"data"`
	// Settings are the sampler settings.
	Settings sampler.Settings `json:"settings"`
	// Chains stores summaries of all the chains.
	Chains []ChainSummary `json:"chains"`
	// Time is the sampling time in seconds.
	Time float64 `json:"samplingTime"`
}

// summarize computes posterior means and inclusion frequencies over
// the draws after burn-in.
func summarize(a *sampler.Archive) ChainSummary {
	cs := ChainSummary{
		Chain:     a.Chain,
		Seed:      a.Seed,
		Inclusion: make(map[string]float64),
		Mean:      make(map[string]float64),
	}
	names := a.Names()
	sums := make([]float64, len(names))
	for _, d := range a.Draws() {
		if d.Iter < a.BurnIn {
			continue
		}
		cs.Draws++
		for j, v := range d.Values() {
			sums[j] += v
		}
	}
	if cs.Draws == 0 {
		return cs
	}
	for j, name := range names {
		v := sums[j] / float64(cs.Draws)
		if strings.HasPrefix(name, "ind_") {
			cs.Inclusion[strings.TrimPrefix(name, "ind_")] = v
		} else {
			cs.Mean[name] = v
		}
	}
	return cs
}
