// Defines the Job record that flows through the simulated queue.

package sim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Job is a unit of work of one priority class.
// Created by an ArrivalGenerator, held by the AdmissionQueue while waiting,
// owned by the Server while in service. Never re-queued.
type Job struct {
	ID          int64   // Monotonically increasing, assigned at creation (first job is 1)
	Class       int     // Priority class; lower is served first
	ArrivalTime float64 // Simulated time at creation

	DepartureTime float64 // Simulated time at completion; meaningful only when Departed
	Departed      bool    // Set exactly once, by the Server
}

// Depart stamps the departure time. A job departs once; a second call, or a
// departure earlier than arrival, is rejected and leaves the job unchanged.
func (j *Job) Depart(t float64) error {
	if j.Departed {
		return errors.Wrapf(ErrAlreadyFinalized, "job %d departed at %v, refused %v", j.ID, j.DepartureTime, t)
	}
	if t < j.ArrivalTime {
		return errors.Wrapf(ErrSchedulingInvariant, "job %d departure %v before arrival %v", j.ID, t, j.ArrivalTime)
	}
	j.DepartureTime = t
	j.Departed = true
	return nil
}

// Sojourn returns departure minus arrival, and false while the job has not departed.
func (j *Job) Sojourn() (float64, bool) {
	if !j.Departed {
		return 0, false
	}
	return j.DepartureTime - j.ArrivalTime, true
}

func (j Job) String() string {
	return fmt.Sprintf("%d-%d", j.ID, j.Class)
}
