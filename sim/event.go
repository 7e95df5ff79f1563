package sim

import "math"

// Process is a logical process multiplexed onto the simulator clock.
// Resume runs one atomic section. To be resumed again the process calls
// Simulator.Advance exactly once before returning; otherwise it is finished
// until something else schedules it.
type Process interface {
	// Rank orders processes resuming at the same instant; lower resumes first.
	Rank() int
	Resume(sim *Simulator) error
}

// Same-instant ordering: a completing service frees the server first, then
// arrivals are admitted class by class, then the dispatch loop observes both.
const (
	RankServer      = 0
	RankArrivalBase = 1 // the generator of class c has rank RankArrivalBase+c
	RankDispatch    = math.MaxInt32
)

// Resumption is a pending wake-up of a suspended process.
type Resumption struct {
	Time    float64
	Rank    int
	Seq     uint64 // scheduling order, the final tie-breaker
	Process Process
}

// EventQueue implements heap.Interface and orders resumptions by
// time, then rank, then scheduling sequence. The order is total.
type EventQueue []*Resumption

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	a, b := eq[i], eq[j]
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Seq < b.Seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(*Resumption))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}
