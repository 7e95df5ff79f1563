// Implements the AdmissionQueue, which holds jobs that have arrived and not yet
// begun service, in strict priority order.

package sim

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// QueueKey orders waiting jobs: class ascending, then admission sequence ascending.
// Equal-class jobs admitted at the same instant are still totally ordered by Seq.
type QueueKey struct {
	Class int
	Seq   uint64
}

// Less reports whether k is served before o.
func (k QueueKey) Less(o QueueKey) bool {
	if k.Class != o.Class {
		return k.Class < o.Class
	}
	return k.Seq < o.Seq
}

type queueEntry struct {
	key QueueKey
	job *Job
}

func compareEntries(a, b interface{}) int {
	ka, kb := a.(queueEntry).key, b.(queueEntry).key
	switch {
	case ka.Less(kb):
		return -1
	case kb.Less(ka):
		return 1
	default:
		return 0
	}
}

// AdmissionQueue is a priority-ordered holding area for jobs awaiting service.
// Admit and TakeHighestPriority are O(log n); IsEmpty is O(1).
// Not safe for concurrent use: the cooperative scheduler serializes access.
type AdmissionQueue struct {
	heap *binaryheap.Heap
	seq  uint64
}

// NewAdmissionQueue creates an empty queue.
func NewAdmissionQueue() *AdmissionQueue {
	return &AdmissionQueue{heap: binaryheap.NewWith(compareEntries)}
}

// Admit inserts a newly arrived job. Always succeeds.
func (q *AdmissionQueue) Admit(job *Job) {
	if job == nil {
		panic("Admit: job must not be nil")
	}
	q.seq++
	q.heap.Push(queueEntry{key: QueueKey{Class: job.Class, Seq: q.seq}, job: job})
}

// TakeHighestPriority removes and returns the job with the smallest key.
// Returns false when the queue is empty.
func (q *AdmissionQueue) TakeHighestPriority() (*Job, bool) {
	v, ok := q.heap.Pop()
	if !ok {
		return nil, false
	}
	return v.(queueEntry).job, true
}

// Peek returns the next job without removing it.
func (q *AdmissionQueue) Peek() (*Job, bool) {
	v, ok := q.heap.Peek()
	if !ok {
		return nil, false
	}
	return v.(queueEntry).job, true
}

// IsEmpty reports whether no job is waiting.
func (q *AdmissionQueue) IsEmpty() bool {
	return q.heap.Empty()
}

// Len returns the number of waiting jobs.
func (q *AdmissionQueue) Len() int {
	return q.heap.Size()
}

func (q *AdmissionQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range q.heap.Values() {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprint(v.(queueEntry).job))
	}
	sb.WriteString("]")
	return sb.String()
}
