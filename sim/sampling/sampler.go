// Package sampling provides the random-variate sources the engine consumes for
// interarrival gaps and service durations. Distributions come from gonum's
// distuv package; this package only selects and parameterizes them and checks
// what they return at the sampling boundary.
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidSample is returned by Check for durations the engine must not use.
var ErrInvalidSample = errors.New("invalid sample")

// Sampler draws a duration in simulated time units.
type Sampler interface {
	Sample() float64
}

// ArrivalProcess selects how interarrival gaps are drawn from a class's arrival rate.
type ArrivalProcess string

const (
	// ArrivalPoisson draws each gap as an integer from Poisson(rate), so the
	// configured rate acts as the mean gap. This is the default.
	ArrivalPoisson ArrivalProcess = "poisson"
	// ArrivalExponential draws each gap from Exp(rate): a Poisson arrival
	// process with mean gap 1/rate.
	ArrivalExponential ArrivalProcess = "exponential"
)

// ServiceMode selects how the service parameter is interpreted.
type ServiceMode string

const (
	// ServiceMean uses the parameter as the mean service time. This is the default.
	ServiceMean ServiceMode = "mean"
	// ServiceRate uses the parameter as a rate, so the mean service time is 1/param.
	ServiceRate ServiceMode = "rate"
)

var (
	validArrivalProcesses = map[ArrivalProcess]bool{ArrivalPoisson: true, ArrivalExponential: true}
	validServiceModes     = map[ServiceMode]bool{ServiceMean: true, ServiceRate: true}
)

// IsValidArrivalProcess reports whether p names a known arrival process.
func IsValidArrivalProcess(p ArrivalProcess) bool { return validArrivalProcesses[p] }

// IsValidServiceMode reports whether m names a known service mode.
func IsValidServiceMode(m ServiceMode) bool { return validServiceModes[m] }

// MeanInterarrival returns the expected gap for the given process and rate.
func MeanInterarrival(p ArrivalProcess, rate float64) float64 {
	if p == ArrivalExponential {
		return 1 / rate
	}
	return rate
}

// MeanService returns the expected service time for the given mode and parameter.
func MeanService(m ServiceMode, param float64) float64 {
	if m == ServiceRate {
		return 1 / param
	}
	return param
}

// ExponentialSampler draws exponentially-distributed durations.
type ExponentialSampler struct {
	dist distuv.Exponential
}

// NewExponentialByMean returns an exponential sampler with the given mean.
func NewExponentialByMean(mean float64, src rand.Source) *ExponentialSampler {
	return &ExponentialSampler{dist: distuv.Exponential{Rate: 1 / mean, Src: src}}
}

// NewExponentialByRate returns an exponential sampler with the given rate.
func NewExponentialByRate(rate float64, src rand.Source) *ExponentialSampler {
	return &ExponentialSampler{dist: distuv.Exponential{Rate: rate, Src: src}}
}

func (s *ExponentialSampler) Sample() float64 { return s.dist.Rand() }

// Mean returns the distribution mean.
func (s *ExponentialSampler) Mean() float64 { return s.dist.Mean() }

// PoissonSampler draws non-negative integer durations from Poisson(lambda).
type PoissonSampler struct {
	dist distuv.Poisson
}

// NewPoisson returns a Poisson sampler with mean lambda.
func NewPoisson(lambda float64, src rand.Source) *PoissonSampler {
	return &PoissonSampler{dist: distuv.Poisson{Lambda: lambda, Src: src}}
}

func (s *PoissonSampler) Sample() float64 { return s.dist.Rand() }

// Mean returns the distribution mean.
func (s *PoissonSampler) Mean() float64 { return s.dist.Mean() }

// ConstantSampler always returns Value.
type ConstantSampler struct {
	Value float64
}

func (s ConstantSampler) Sample() float64 { return s.Value }

// SequenceSampler replays a fixed list of values, wrapping around at the end.
// Useful for controlled service durations and replaying recorded gaps.
type SequenceSampler struct {
	values []float64
	next   int
}

// NewSequence returns a SequenceSampler over values. It panics on an empty list.
func NewSequence(values ...float64) *SequenceSampler {
	if len(values) == 0 {
		panic("NewSequence: values must not be empty")
	}
	return &SequenceSampler{values: append([]float64(nil), values...)}
}

func (s *SequenceSampler) Sample() float64 {
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// NewInterarrival builds the gap sampler for one class.
func NewInterarrival(p ArrivalProcess, rate float64, src rand.Source) (Sampler, error) {
	switch p {
	case ArrivalPoisson:
		return NewPoisson(rate, src), nil
	case ArrivalExponential:
		return NewExponentialByRate(rate, src), nil
	default:
		return nil, fmt.Errorf("unknown arrival process %q; valid: poisson, exponential", p)
	}
}

// NewService builds the service-duration sampler.
func NewService(m ServiceMode, param float64, src rand.Source) (Sampler, error) {
	switch m {
	case ServiceMean:
		return NewExponentialByMean(param, src), nil
	case ServiceRate:
		return NewExponentialByRate(param, src), nil
	default:
		return nil, fmt.Errorf("unknown service mode %q; valid: mean, rate", m)
	}
}

// Check rejects NaN, infinite and negative values. When positive is set,
// zero is rejected too.
func Check(v float64, positive bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrInvalidSample, "non-finite value %v", v)
	}
	if v < 0 || (positive && v == 0) {
		return errors.Wrapf(ErrInvalidSample, "value %v out of range", v)
	}
	return nil
}
