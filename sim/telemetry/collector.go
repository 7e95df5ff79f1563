// Package telemetry exposes engine activity as Prometheus metrics.
package telemetry

import (
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/pqsim/sim"
)

const promNamespace = "pqsim"

var classLabels = []string{"class"}

// SojournBuckets are the histogram buckets for time in system, in simulated
// time units.
var SojournBuckets = prom.ExponentialBuckets(0.05, 2, 14)

// Collector is a sim.Hook that counts arrivals and departures per class,
// observes sojourn times and tracks the admission queue length. Its metrics
// live on a private registry so several simulations in one process do not
// collide.
type Collector struct {
	Registry *prom.Registry

	arrived     *prom.CounterVec
	departed    *prom.CounterVec
	sojourn     *prom.HistogramVec
	queueLength prom.Gauge
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector() *Collector {
	c := &Collector{
		Registry: prom.NewRegistry(),
		arrived: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "jobs_arrived_total",
			Help:      "jobs admitted to the queue",
		}, classLabels),
		departed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "jobs_departed_total",
			Help:      "jobs that completed service",
		}, classLabels),
		sojourn: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: promNamespace,
			Name:      "sojourn_time",
			Help:      "simulated time between arrival and departure",
			Buckets:   SojournBuckets,
		}, classLabels),
		queueLength: prom.NewGauge(prom.GaugeOpts{
			Namespace: promNamespace,
			Name:      "queue_length",
			Help:      "jobs waiting for the server",
		}),
	}
	c.Registry.MustRegister(c.arrived, c.departed, c.sojourn, c.queueLength)
	return c
}

// Func implements sim.Hook.
func (c *Collector) Func(ctx sim.HookCtx) {
	class := strconv.Itoa(ctx.Job.Class)
	c.queueLength.Set(float64(ctx.QueueLen))
	switch ctx.Pos {
	case sim.HookPosArrival:
		c.arrived.WithLabelValues(class).Inc()
	case sim.HookPosDeparture:
		c.departed.WithLabelValues(class).Inc()
		if d, ok := ctx.Job.Sojourn(); ok {
			c.sojourn.WithLabelValues(class).Observe(d)
		}
	}
}

// WriteTextfile writes the current metric values to path in the Prometheus
// text exposition format, e.g. for the node exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, c.Registry)
}
