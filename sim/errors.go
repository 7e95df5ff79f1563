package sim

import "github.com/pkg/errors"

// Error kinds surfaced by the engine. Callers match them with errors.Is;
// the engine always wraps them with the offending values.
var (
	// ErrInvalidConfig marks a rate, horizon or tick that cannot start a run.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidDuration marks an Advance call with a negative or non-finite delay.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrSampling marks a sampler that returned a duration the engine refuses to use.
	ErrSampling = errors.New("sampling error")

	// ErrSchedulingInvariant marks an internal-consistency failure such as
	// dispatching to a busy server or scheduling into the past.
	ErrSchedulingInvariant = errors.New("scheduling invariant violated")

	// ErrAlreadyFinalized marks a second attempt to set a job's departure.
	ErrAlreadyFinalized = errors.New("job already finalized")

	// ErrUnknownJob marks a departure for a job whose arrival was never recorded.
	ErrUnknownJob = errors.New("unknown job")
)
