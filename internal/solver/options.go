package solver

import "time"

// Options configures a single Solve call. Zero values are replaced by
// DefaultOptions()'s defaults, except Seed: a zero Seed is used as given.
type Options struct {
	FeasibilityTimeout time.Duration
	PopulationSize     int
	Generations        int
	CxProb             float64
	MutProb            float64
	Seed               int64
}

// DefaultOptions returns the hyperparameters named in the component
// design: a 120s feasibility budget, population 20, 10 generations,
// p_cx=0.7, p_mut=0.2.
func DefaultOptions() Options {
	return Options{
		FeasibilityTimeout: 120 * time.Second,
		PopulationSize:     20,
		Generations:        10,
		CxProb:             0.7,
		MutProb:            0.2,
		Seed:               1,
	}
}

// withDefaults fills any zero-valued field other than Seed from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FeasibilityTimeout <= 0 {
		o.FeasibilityTimeout = d.FeasibilityTimeout
	}
	if o.PopulationSize <= 0 {
		o.PopulationSize = d.PopulationSize
	}
	if o.Generations <= 0 {
		o.Generations = d.Generations
	}
	if o.CxProb <= 0 {
		o.CxProb = d.CxProb
	}
	if o.MutProb <= 0 {
		o.MutProb = d.MutProb
	}
	return o
}
