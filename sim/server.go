package sim

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/pqsim/sim/sampling"
)

// Server is the single, non-preemptive service resource. It holds at most one
// job; a job's departure is recorded before the server accepts another.
type Server struct {
	Served int64

	sampler      sampling.Sampler
	current      *Job
	serviceStart float64
	busyTime     float64
}

// NewServer creates an idle server drawing service durations from sampler.
func NewServer(sampler sampling.Sampler) *Server {
	return &Server{sampler: sampler}
}

func (s *Server) Rank() int { return RankServer }

// Busy reports whether a job is in service.
func (s *Server) Busy() bool {
	return s.current != nil
}

// Current returns the job in service, if any.
func (s *Server) Current() (*Job, bool) {
	return s.current, s.current != nil
}

// BusyTimeAt returns the accumulated service time up to now, counting the
// elapsed part of an unfinished service.
func (s *Server) BusyTimeAt(now float64) float64 {
	if s.current != nil {
		return s.busyTime + now - s.serviceStart
	}
	return s.busyTime
}

// Accept starts serving job. It fails if the server is already busy or the
// sampled duration is not strictly positive and finite.
func (s *Server) Accept(sim *Simulator, job *Job) error {
	if s.current != nil {
		return errors.Wrapf(ErrSchedulingInvariant, "job %s dispatched at t=%v while job %s in service", job, sim.Now(), s.current)
	}
	d := s.sampler.Sample()
	if err := sampling.Check(d, true); err != nil {
		return errors.Wrapf(ErrSampling, "service duration for job %s: %v", job, err)
	}
	s.current = job
	s.serviceStart = sim.Now()
	logrus.Debugf("[t=%.4f] Job %s started service for %.4f", sim.Now(), job, d)
	sim.InvokeHook(HookCtx{Pos: HookPosDispatch, Now: sim.Now(), Job: *job, QueueLen: sim.Queue.Len()})
	return sim.Advance(s, d)
}

// Resume completes the job in service: stamps its departure, merges it into
// the result store and frees the server.
func (s *Server) Resume(sim *Simulator) error {
	job := s.current
	if job == nil {
		return errors.Wrapf(ErrSchedulingInvariant, "server resumed at t=%v with no job in service", sim.Now())
	}
	if err := job.Depart(sim.Now()); err != nil {
		return err
	}
	if err := sim.Store.RecordDeparture(job.ID, job.DepartureTime); err != nil {
		return err
	}
	s.busyTime += sim.Now() - s.serviceStart
	s.current = nil
	s.Served++
	logrus.Debugf("[t=%.4f] Job %s finished, priority %d", sim.Now(), job, job.Class)
	sim.InvokeHook(HookCtx{Pos: HookPosDeparture, Now: sim.Now(), Job: *job, QueueLen: sim.Queue.Len()})
	return nil
}
