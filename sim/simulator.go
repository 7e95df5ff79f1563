// sim/simulator.go
package sim

import (
	"container/heap"
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/pqsim/sim/sampling"
)

// Stats summarizes engine-side counters for a run.
type Stats struct {
	Admitted   int64   // jobs created by the arrival generators
	Completed  int64   // jobs whose departure was recorded
	Waiting    int     // jobs still in the admission queue
	InService  bool    // whether a job was in service when the run stopped
	BusyTime   float64 // simulated time the server spent serving
	EndTime    float64 // clock value when the run stopped
	EventCount int64   // resumptions executed
}

// Utilization returns BusyTime / EndTime, or 0 for an empty run.
func (s Stats) Utilization() float64 {
	if s.EndTime <= 0 {
		return 0
	}
	return s.BusyTime / s.EndTime
}

// RunResult bundles the result records with engine counters.
type RunResult struct {
	Seed    int64
	Records []Record
	Stats   Stats
}

// Simulator is the core object that holds simulated time, the pending
// resumptions of every logical process, and the shared queueing state.
// It is single-threaded: processes run one at a time between suspensions.
type Simulator struct {
	HookableBase

	Config Config
	clock  float64
	// EventQueue holds every pending resumption
	EventQueue EventQueue
	seq        uint64
	pending    map[Process]bool

	Queue      *AdmissionQueue
	Server     *Server
	Dispatcher *Dispatcher
	Generators []*ArrivalGenerator
	Store      ResultStore

	nextJobID  int64
	admitted   int64
	eventCount int64
	failed     error
}

// NewSimulator validates cfg and builds a simulator whose samplers draw from
// a PartitionedRNG seeded with cfg.Seed.
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	arrivals := make([]sampling.Sampler, cfg.NumClasses())
	for c, rate := range cfg.ArrivalRates {
		s, err := sampling.NewInterarrival(cfg.ArrivalProcess, rate, rng.ForSubsystem(SubsystemArrival(c)))
		if err != nil {
			return nil, errors.Wrap(ErrInvalidConfig, err.Error())
		}
		arrivals[c] = s
	}
	service, err := sampling.NewService(cfg.ServiceMode, cfg.ServiceRate, rng.ForSubsystem(SubsystemService))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return NewSimulatorWithSamplers(cfg, arrivals, service)
}

// NewSimulatorWithSamplers builds a simulator with caller-supplied samplers,
// one per class plus the service sampler. Rates in cfg are still validated
// but only the samplers determine durations.
func NewSimulatorWithSamplers(cfg Config, arrivals []sampling.Sampler, service sampling.Sampler) (*Simulator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(arrivals) != cfg.NumClasses() {
		return nil, errors.Wrapf(ErrInvalidConfig, "got %d arrival samplers for %d classes", len(arrivals), cfg.NumClasses())
	}
	if service == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "service sampler must not be nil")
	}

	s := &Simulator{
		Config:     cfg,
		EventQueue: make(EventQueue, 0),
		pending:    make(map[Process]bool),
		Queue:      NewAdmissionQueue(),
		Server:     NewServer(service),
		Dispatcher: NewDispatcher(cfg.DispatchTick),
		Store:      NewMemoryStore(),
	}
	// Registration order is part of the deterministic ordering contract.
	for c, a := range arrivals {
		if a == nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "arrival sampler for class %d must not be nil", c)
		}
		g := NewArrivalGenerator(c, a)
		s.Generators = append(s.Generators, g)
		s.Start(g)
	}
	s.Start(s.Dispatcher)
	return s, nil
}

// Now returns the current simulated time.
func (sim *Simulator) Now() float64 {
	return sim.clock
}

// Start registers p to be resumed at the current instant.
func (sim *Simulator) Start(p Process) {
	sim.schedule(p, sim.clock)
}

// Advance suspends p for d time units: p is resumed once the clock reaches
// Now()+d. d must be finite and non-negative, and p must not already be
// waiting for a resumption.
func (sim *Simulator) Advance(p Process, d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return errors.Wrapf(ErrInvalidDuration, "advance by %v at t=%v", d, sim.clock)
	}
	if sim.pending[p] {
		return errors.Wrapf(ErrSchedulingInvariant, "%T suspended twice at t=%v", p, sim.clock)
	}
	sim.schedule(p, sim.clock+d)
	return nil
}

func (sim *Simulator) schedule(p Process, at float64) {
	sim.seq++
	sim.pending[p] = true
	heap.Push(&sim.EventQueue, &Resumption{Time: at, Rank: p.Rank(), Seq: sim.seq, Process: p})
}

// Run executes pending resumptions in (time, rank, sequence) order while
// they fall strictly before until, then sets the clock to until. Processes
// still suspended stay suspended; Run may be called again with a later
// horizon to continue. An error from any process aborts the run, is
// returned, and is returned again by every later call.
func (sim *Simulator) Run(until float64) error {
	return sim.RunContext(context.Background(), until)
}

// ctxCheckInterval is how many resumptions run between context checks.
const ctxCheckInterval = 4096

// RunContext is Run with cancellation. A cancelled context aborts the run
// like a process error.
func (sim *Simulator) RunContext(ctx context.Context, until float64) error {
	if sim.failed != nil {
		return sim.failed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if math.IsNaN(until) || math.IsInf(until, 0) || until < sim.clock {
		return errors.Wrapf(ErrInvalidConfig, "run until %v from t=%v", until, sim.clock)
	}
	logrus.Infof("[t=%.4f] Running until %v with %d pending processes", sim.clock, until, len(sim.EventQueue))

	for len(sim.EventQueue) > 0 && sim.EventQueue[0].Time < until {
		r := heap.Pop(&sim.EventQueue).(*Resumption)
		if r.Time < sim.clock {
			sim.failed = errors.Wrapf(ErrSchedulingInvariant, "resumption at %v behind clock %v", r.Time, sim.clock)
			return sim.failed
		}
		sim.clock = r.Time
		delete(sim.pending, r.Process)
		sim.eventCount++
		if sim.eventCount%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				sim.failed = errors.Wrapf(err, "run cancelled at t=%v", sim.clock)
				return sim.failed
			}
		}
		logrus.Tracef("[t=%.4f] Resuming %T", sim.clock, r.Process)
		if err := r.Process.Resume(sim); err != nil {
			sim.failed = err
			logrus.Errorf("[t=%.4f] Simulation aborted: %v", sim.clock, err)
			return err
		}
	}
	sim.clock = until
	logrus.Infof("[t=%.4f] Simulation ended", sim.clock)
	return nil
}

// admit creates the next job of class c at the current instant, hands it to
// the admission queue and records its arrival.
func (sim *Simulator) admit(class int) (*Job, error) {
	sim.nextJobID++
	job := &Job{ID: sim.nextJobID, Class: class, ArrivalTime: sim.clock}
	sim.Queue.Admit(job)
	if err := sim.Store.RecordArrival(job); err != nil {
		return nil, err
	}
	sim.admitted++
	logrus.Debugf("[t=%.4f] Job %s entered the system, priority %d", sim.clock, job, job.Class)
	sim.InvokeHook(HookCtx{Pos: HookPosArrival, Now: sim.clock, Job: *job, QueueLen: sim.Queue.Len()})
	return job, nil
}

// Stats returns the engine counters as of the current clock.
func (sim *Simulator) Stats() Stats {
	return Stats{
		Admitted:   sim.admitted,
		Completed:  sim.Server.Served,
		Waiting:    sim.Queue.Len(),
		InService:  sim.Server.Busy(),
		BusyTime:   sim.Server.BusyTimeAt(sim.clock),
		EndTime:    sim.clock,
		EventCount: sim.eventCount,
	}
}

// Results returns the records and counters of a run. It fails if the run
// was aborted, so a failed run never yields partial records.
func (sim *Simulator) Results() (*RunResult, error) {
	if sim.failed != nil {
		return nil, sim.failed
	}
	return &RunResult{Seed: sim.Config.Seed, Records: sim.Store.Records(), Stats: sim.Stats()}, nil
}
