package sampling

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSrc(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0)
}

func sampleMean(s Sampler, n int) float64 {
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Sample()
	}
	return sum / float64(n)
}

func TestExponentialByMean_MeanMatches(t *testing.T) {
	// GIVEN an exponential sampler with mean 4
	s := NewExponentialByMean(4, newSrc(42))

	// WHEN 50000 values are drawn
	got := sampleMean(s, 50000)

	// THEN the sample mean is within 3% of 4
	assert.InEpsilon(t, 4.0, got, 0.03)
	assert.Equal(t, 4.0, s.Mean())
}

func TestExponentialByRate_MeanMatches(t *testing.T) {
	s := NewExponentialByRate(4, newSrc(42))
	got := sampleMean(s, 50000)
	assert.InEpsilon(t, 0.25, got, 0.03)
}

func TestPoisson_IntegerValuedWithMean(t *testing.T) {
	// GIVEN a Poisson sampler with lambda 3
	s := NewPoisson(3, newSrc(7))

	// WHEN values are drawn
	n := 50000
	sum := 0.0
	for i := 0; i < n; i++ {
		v := s.Sample()
		// THEN every value is a non-negative integer
		require.Equal(t, math.Trunc(v), v, "Poisson sample %v is not integral", v)
		require.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	// AND the mean is close to lambda
	assert.InEpsilon(t, 3.0, sum/float64(n), 0.03)
}

func TestSamplers_SameSourceSeedSameSequence(t *testing.T) {
	a := NewExponentialByMean(2, newSrc(99))
	b := NewExponentialByMean(2, newSrc(99))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Sample(), b.Sample(), "draw %d", i)
	}
}

func TestSequenceSampler_WrapsAround(t *testing.T) {
	s := NewSequence(1, 2, 3)
	got := []float64{s.Sample(), s.Sample(), s.Sample(), s.Sample()}
	assert.Equal(t, []float64{1, 2, 3, 1}, got)
}

func TestSequenceSampler_EmptyPanics(t *testing.T) {
	assert.Panics(t, func() { NewSequence() })
}

func TestConstantSampler(t *testing.T) {
	assert.Equal(t, 2.5, ConstantSampler{Value: 2.5}.Sample())
}

func TestNewInterarrival(t *testing.T) {
	s, err := NewInterarrival(ArrivalPoisson, 2, newSrc(1))
	require.NoError(t, err)
	assert.IsType(t, &PoissonSampler{}, s)

	s, err = NewInterarrival(ArrivalExponential, 2, newSrc(1))
	require.NoError(t, err)
	assert.IsType(t, &ExponentialSampler{}, s)

	_, err = NewInterarrival("gamma", 2, newSrc(1))
	assert.Error(t, err)
}

func TestNewService(t *testing.T) {
	s, err := NewService(ServiceMean, 5, newSrc(1))
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.(*ExponentialSampler).Mean())

	s, err = NewService(ServiceRate, 5, newSrc(1))
	require.NoError(t, err)
	assert.Equal(t, 0.2, s.(*ExponentialSampler).Mean())

	_, err = NewService("median", 5, newSrc(1))
	assert.Error(t, err)
}

func TestMeans(t *testing.T) {
	assert.Equal(t, 4.0, MeanInterarrival(ArrivalPoisson, 4))
	assert.Equal(t, 0.25, MeanInterarrival(ArrivalExponential, 4))
	assert.Equal(t, 4.0, MeanService(ServiceMean, 4))
	assert.Equal(t, 0.25, MeanService(ServiceRate, 4))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		positive bool
		wantErr  bool
	}{
		{"positive ok", 1.5, true, false},
		{"zero allowed for gaps", 0, false, false},
		{"zero rejected for service", 0, true, true},
		{"negative", -1, false, true},
		{"NaN", math.NaN(), false, true},
		{"+Inf", math.Inf(1), true, true},
		{"-Inf", math.Inf(-1), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.v, tt.positive)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidSample), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
