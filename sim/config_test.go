package sim

import (
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/pqsim/sim/sampling"
)

func TestNewConfig_AppliesDefaults(t *testing.T) {
	cfg := NewConfig([]float64{2, 3}, 1, 100)

	assert.Equal(t, DefaultDispatchTick, cfg.DispatchTick)
	assert.Equal(t, sampling.ArrivalPoisson, cfg.ArrivalProcess)
	assert.Equal(t, sampling.ServiceMean, cfg.ServiceMode)
	assert.Equal(t, int64(DefaultSeed), cfg.Seed)
	assert.Equal(t, 2, cfg.NumClasses())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WithDefaults_KeepsZeroSeed(t *testing.T) {
	cfg := Config{ArrivalRates: []float64{1}, ServiceRate: 1, Horizon: 10, DispatchTick: 0.5}.WithDefaults()

	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, sampling.ArrivalPoisson, cfg.ArrivalProcess)
	assert.Equal(t, sampling.ServiceMean, cfg.ServiceMode)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WithDefaults_KeepsZeroDispatchTick(t *testing.T) {
	// GIVEN a config whose dispatch tick is zero
	cfg := NewConfig([]float64{1}, 1, 10)
	cfg.DispatchTick = 0

	// WHEN defaults are applied
	cfg = cfg.WithDefaults()

	// THEN the zero survives and validation rejects it
	assert.Zero(t, cfg.DispatchTick)
	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrInvalidConfig), "want ErrInvalidConfig, got %v", err)
}

func TestConfig_Validate_HorizonZeroAllowed(t *testing.T) {
	cfg := NewConfig([]float64{1}, 1, 0)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no classes", func(c *Config) { c.ArrivalRates = nil }},
		{"zero arrival rate", func(c *Config) { c.ArrivalRates = []float64{1, 0} }},
		{"negative arrival rate", func(c *Config) { c.ArrivalRates = []float64{-1} }},
		{"NaN arrival rate", func(c *Config) { c.ArrivalRates = []float64{math.NaN()} }},
		{"zero service rate", func(c *Config) { c.ServiceRate = 0 }},
		{"infinite service rate", func(c *Config) { c.ServiceRate = math.Inf(1) }},
		{"negative horizon", func(c *Config) { c.Horizon = -1 }},
		{"infinite horizon", func(c *Config) { c.Horizon = math.Inf(1) }},
		{"zero tick", func(c *Config) { c.DispatchTick = 0 }},
		{"negative tick", func(c *Config) { c.DispatchTick = -0.5 }},
		{"NaN tick", func(c *Config) { c.DispatchTick = math.NaN() }},
		{"unknown arrival process", func(c *Config) { c.ArrivalProcess = "gamma" }},
		{"unknown service mode", func(c *Config) { c.ServiceMode = "median" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig([]float64{1}, 1, 10)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "want ErrInvalidConfig, got %v", err)
		})
	}
}

func TestConfig_Validate_ReportsAllProblems(t *testing.T) {
	// GIVEN a config with three independent problems
	cfg := NewConfig([]float64{-1}, 0, -5)

	// WHEN validated
	err := cfg.Validate()

	// THEN all three are reported together
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr), "want *multierror.Error, got %T", err)
	assert.Len(t, merr.Errors, 3)
}

func TestConfig_OfferedLoad(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{
			name: "exponential arrivals, service rate",
			cfg:  Config{ArrivalRates: []float64{0.2, 0.3}, ServiceRate: 1, ArrivalProcess: sampling.ArrivalExponential, ServiceMode: sampling.ServiceRate},
			want: 0.5,
		},
		{
			name: "poisson gaps, service mean",
			cfg:  Config{ArrivalRates: []float64{4}, ServiceRate: 2, ArrivalProcess: sampling.ArrivalPoisson, ServiceMode: sampling.ServiceMean},
			want: 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.cfg.OfferedLoad(), 1e-12)
		})
	}
}
