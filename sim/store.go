package sim

import (
	"github.com/pkg/errors"
)

// Record is the result row for one admitted job. Jobs still queued or in
// service at the horizon have Departed == false (censored observations).
type Record struct {
	JobID         int64
	Class         int
	ArrivalTime   float64
	DepartureTime float64
	Departed      bool
}

// Sojourn returns departure minus arrival, and false for censored records.
func (r Record) Sojourn() (float64, bool) {
	if !r.Departed {
		return 0, false
	}
	return r.DepartureTime - r.ArrivalTime, true
}

// ResultStore owns the per-job result rows. Arrivals create a row; departures
// merge into the row with the same identity.
type ResultStore interface {
	RecordArrival(job *Job) error
	RecordDeparture(id int64, t float64) error
	Records() []Record
}

// MemoryStore is an append-only in-memory ResultStore.
type MemoryStore struct {
	order []int64
	rows  map[int64]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]*Record)}
}

// RecordArrival adds a row for job. Recording the same identity twice is rejected.
func (s *MemoryStore) RecordArrival(job *Job) error {
	if _, ok := s.rows[job.ID]; ok {
		return errors.Wrapf(ErrSchedulingInvariant, "arrival of job %d recorded twice", job.ID)
	}
	s.rows[job.ID] = &Record{JobID: job.ID, Class: job.Class, ArrivalTime: job.ArrivalTime}
	s.order = append(s.order, job.ID)
	return nil
}

// RecordDeparture merges t into the row for id. Unknown ids and second
// departures are rejected; an existing departure is never overwritten.
func (s *MemoryStore) RecordDeparture(id int64, t float64) error {
	row, ok := s.rows[id]
	if !ok {
		return errors.Wrapf(ErrUnknownJob, "departure for job %d", id)
	}
	if row.Departed {
		return errors.Wrapf(ErrAlreadyFinalized, "job %d departed at %v, refused %v", id, row.DepartureTime, t)
	}
	row.DepartureTime = t
	row.Departed = true
	return nil
}

// Records returns a copy of all rows in arrival order.
func (s *MemoryStore) Records() []Record {
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.rows[id])
	}
	return out
}

// Len returns the number of recorded arrivals.
func (s *MemoryStore) Len() int {
	return len(s.order)
}
