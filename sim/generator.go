package sim

import (
	"github.com/pkg/errors"

	"github.com/inference-sim/pqsim/sim/sampling"
)

// ArrivalGenerator is the logical process that emits jobs of one class.
// Each cycle it samples a gap, suspends for it, and on waking admits a new job.
type ArrivalGenerator struct {
	Class   int
	Emitted int64

	sampler sampling.Sampler
	started bool
}

// NewArrivalGenerator creates the generator for class.
func NewArrivalGenerator(class int, sampler sampling.Sampler) *ArrivalGenerator {
	return &ArrivalGenerator{Class: class, sampler: sampler}
}

func (g *ArrivalGenerator) Rank() int { return RankArrivalBase + g.Class }

// Resume admits a job (on every wake-up except the first) and suspends for
// the next interarrival gap. Gaps may be zero but never negative or non-finite.
func (g *ArrivalGenerator) Resume(sim *Simulator) error {
	if g.started {
		if _, err := sim.admit(g.Class); err != nil {
			return err
		}
		g.Emitted++
	}
	g.started = true

	gap := g.sampler.Sample()
	if err := sampling.Check(gap, false); err != nil {
		return errors.Wrapf(ErrSampling, "class %d interarrival: %v", g.Class, err)
	}
	return sim.Advance(g, gap)
}
