package sim

import "github.com/sirupsen/logrus"

// Dispatcher is the logical process that polls the server and the admission
// queue once per Tick. Dispatch latency is bounded by one tick.
type Dispatcher struct {
	Tick       float64
	Dispatched int64
	Idle       int64 // cycles in which nothing was dispatched
}

// NewDispatcher creates a dispatcher polling every tick time units.
func NewDispatcher(tick float64) *Dispatcher {
	return &Dispatcher{Tick: tick}
}

func (d *Dispatcher) Rank() int { return RankDispatch }

// Resume hands the highest-priority waiting job to the server when it is
// idle, then suspends one tick.
func (d *Dispatcher) Resume(sim *Simulator) error {
	if !sim.Server.Busy() && !sim.Queue.IsEmpty() {
		job, _ := sim.Queue.TakeHighestPriority()
		if err := sim.Server.Accept(sim, job); err != nil {
			return err
		}
		d.Dispatched++
	} else {
		d.Idle++
		if sim.Queue.Len() > 0 {
			logrus.Tracef("[t=%.4f] Server busy, %d waiting", sim.Now(), sim.Queue.Len())
		}
	}
	return sim.Advance(d, d.Tick)
}
