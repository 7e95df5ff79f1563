package sim

import (
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/inference-sim/pqsim/sim/sampling"
)

// DefaultDispatchTick is the dispatch loop's polling cadence in time units.
const DefaultDispatchTick = 1.0

// DefaultSeed is the master seed used when none is configured.
const DefaultSeed = 42

// Config holds everything needed to build and run one simulation.
// The number of priority classes is len(ArrivalRates); class 0 is served first.
type Config struct {
	ArrivalRates   []float64               `yaml:"arrival_rates"`   // one positive value per class
	ServiceRate    float64                 `yaml:"service_rate"`    // service parameter, see ServiceMode
	Horizon        float64                 `yaml:"horizon"`         // simulated-time limit (>= 0)
	DispatchTick   float64                 `yaml:"dispatch_tick"`   // polling cadence (> 0)
	ArrivalProcess sampling.ArrivalProcess `yaml:"arrival_process"` // "poisson" (default) or "exponential"
	ServiceMode    sampling.ServiceMode    `yaml:"service_mode"`    // "mean" (default) or "rate"
	Seed           int64                   `yaml:"seed"`
}

// NewConfig returns a Config with the default values for the optional fields.
func NewConfig(arrivalRates []float64, serviceRate, horizon float64) Config {
	return Config{
		ArrivalRates:   arrivalRates,
		ServiceRate:    serviceRate,
		Horizon:        horizon,
		DispatchTick:   DefaultDispatchTick,
		ArrivalProcess: sampling.ArrivalPoisson,
		ServiceMode:    sampling.ServiceMean,
		Seed:           DefaultSeed,
	}
}

// WithDefaults fills the empty distribution selectors. Numeric fields are
// left untouched: zero is a valid seed, and a zero DispatchTick is a
// configuration error for Validate to report. Use NewConfig for the
// numeric defaults.
func (c Config) WithDefaults() Config {
	if c.ArrivalProcess == "" {
		c.ArrivalProcess = sampling.ArrivalPoisson
	}
	if c.ServiceMode == "" {
		c.ServiceMode = sampling.ServiceMean
	}
	return c
}

// NumClasses returns the number of priority classes.
func (c Config) NumClasses() int {
	return len(c.ArrivalRates)
}

// Validate reports every configuration problem at once. Each one wraps ErrInvalidConfig.
func (c Config) Validate() error {
	var result *multierror.Error
	if len(c.ArrivalRates) == 0 {
		result = multierror.Append(result, errors.Wrap(ErrInvalidConfig, "at least one arrival rate required"))
	}
	for i, r := range c.ArrivalRates {
		if err := validateFinitePositive(r); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "arrival_rates[%d]", i))
		}
	}
	if err := validateFinitePositive(c.ServiceRate); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "service_rate"))
	}
	if math.IsNaN(c.Horizon) || math.IsInf(c.Horizon, 0) || c.Horizon < 0 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "horizon must be finite and non-negative, got %v", c.Horizon))
	}
	if err := validateFinitePositive(c.DispatchTick); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "dispatch_tick"))
	}
	if !sampling.IsValidArrivalProcess(c.ArrivalProcess) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "unknown arrival_process %q; valid: poisson, exponential", c.ArrivalProcess))
	}
	if !sampling.IsValidServiceMode(c.ServiceMode) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "unknown service_mode %q; valid: mean, rate", c.ServiceMode))
	}
	return result.ErrorOrNil()
}

// OfferedLoad returns the server utilization implied by the configuration:
// total arrival rate times mean service time, both under the selected
// semantics. Values at or above 1 mean the queue grows without bound.
func (c Config) OfferedLoad() float64 {
	meanService := sampling.MeanService(c.ServiceMode, c.ServiceRate)
	load := 0.0
	for _, r := range c.ArrivalRates {
		load += meanService / sampling.MeanInterarrival(c.ArrivalProcess, r)
	}
	return load
}

func validateFinitePositive(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrInvalidConfig, "must be a finite number, got %v", v)
	}
	if v <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "must be positive, got %v", v)
	}
	return nil
}
