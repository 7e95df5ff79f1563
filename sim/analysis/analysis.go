// Package analysis derives latency, throughput and jitter statistics from
// result records after a run.
package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/pqsim/sim"
)

// ClassSummary holds the sojourn statistics of one priority class.
// Sojourn fields are NaN when no job of the class completed.
type ClassSummary struct {
	Class     int
	Arrived   int
	Completed int
	Censored  int // arrived but not departed by the horizon

	MeanSojourn float64
	MinSojourn  float64
	MaxSojourn  float64
	P50Sojourn  float64
	P90Sojourn  float64
	P99Sojourn  float64
	Jitter      float64 // standard deviation of sojourn times
}

// Throughput counts departures per unit-time bucket, keyed by the ceiling of
// the departure time. Only buckets with at least one departure are counted.
type Throughput struct {
	Buckets int
	Min     float64
	Max     float64
	Mean    float64
}

// Summary is the post-hoc view of one run.
type Summary struct {
	Classes    []ClassSummary
	Arrived    int
	Completed  int
	Throughput Throughput
}

// Sojourns returns departure - arrival for every completed record, in record order.
func Sojourns(records []sim.Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if d, ok := r.Sojourn(); ok {
			out = append(out, d)
		}
	}
	return out
}

// Summarize computes per-class latency and jitter and overall throughput.
// The summary covers classes 0..numClasses-1, widened to the highest class
// present in records, so configured classes without arrivals still appear.
func Summarize(records []sim.Record, numClasses int) *Summary {
	numClasses = max(numClasses, 0)
	for _, r := range records {
		if r.Class+1 > numClasses {
			numClasses = r.Class + 1
		}
	}

	perClass := make([][]float64, numClasses)
	s := &Summary{Classes: make([]ClassSummary, numClasses)}
	for c := range s.Classes {
		s.Classes[c].Class = c
	}
	buckets := make(map[float64]int)
	for _, r := range records {
		cs := &s.Classes[r.Class]
		cs.Arrived++
		s.Arrived++
		d, ok := r.Sojourn()
		if !ok {
			cs.Censored++
			continue
		}
		cs.Completed++
		s.Completed++
		perClass[r.Class] = append(perClass[r.Class], d)
		buckets[math.Ceil(r.DepartureTime)]++
	}

	for c, xs := range perClass {
		fillSojournStats(&s.Classes[c], xs)
	}
	s.Throughput = throughput(buckets)
	return s
}

func fillSojournStats(cs *ClassSummary, xs []float64) {
	if len(xs) == 0 {
		nan := math.NaN()
		cs.MeanSojourn, cs.MinSojourn, cs.MaxSojourn = nan, nan, nan
		cs.P50Sojourn, cs.P90Sojourn, cs.P99Sojourn = nan, nan, nan
		cs.Jitter = nan
		return
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	cs.MeanSojourn = stat.Mean(sorted, nil)
	cs.MinSojourn = floats.Min(sorted)
	cs.MaxSojourn = floats.Max(sorted)
	cs.P50Sojourn = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	cs.P90Sojourn = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	cs.P99Sojourn = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	if len(sorted) > 1 {
		cs.Jitter = stat.StdDev(sorted, nil)
	}
}

func throughput(buckets map[float64]int) Throughput {
	if len(buckets) == 0 {
		return Throughput{}
	}
	counts := make([]float64, 0, len(buckets))
	for _, n := range buckets {
		counts = append(counts, float64(n))
	}
	return Throughput{
		Buckets: len(counts),
		Min:     floats.Min(counts),
		Max:     floats.Max(counts),
		Mean:    stat.Mean(counts, nil),
	}
}

// MM1MeanSojourn returns the expected time in system of an M/M/1 queue,
// 1/(mu - lambda). It is NaN when the queue is unstable or a rate is not positive.
func MM1MeanSojourn(arrivalRate, serviceRate float64) float64 {
	if arrivalRate <= 0 || serviceRate <= 0 || arrivalRate >= serviceRate {
		return math.NaN()
	}
	return 1 / (serviceRate - arrivalRate)
}

// ClassComparison aggregates one class's mean sojourn across replications.
type ClassComparison struct {
	Class  int
	Runs   int // replications in which the class completed at least one job
	Mean   float64
	StdDev float64
}

// CompareReplications reports, per class, the mean and standard deviation of
// the per-run mean sojourn. Runs where a class completed nothing are skipped.
func CompareReplications(summaries []*Summary) []ClassComparison {
	numClasses := 0
	for _, s := range summaries {
		if len(s.Classes) > numClasses {
			numClasses = len(s.Classes)
		}
	}
	out := make([]ClassComparison, numClasses)
	for c := range out {
		var means []float64
		for _, s := range summaries {
			if c < len(s.Classes) && s.Classes[c].Completed > 0 {
				means = append(means, s.Classes[c].MeanSojourn)
			}
		}
		out[c] = ClassComparison{Class: c, Runs: len(means), Mean: math.NaN(), StdDev: math.NaN()}
		if len(means) > 0 {
			out[c].Mean = stat.Mean(means, nil)
		}
		if len(means) > 1 {
			out[c].StdDev = stat.StdDev(means, nil)
		}
	}
	return out
}

// Print writes a human-readable report of s to w.
func (s *Summary) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "=== Queue Summary ==="); err != nil {
		return err
	}
	fmt.Fprintf(w, "Jobs Arrived         : %d\n", s.Arrived)
	fmt.Fprintf(w, "Jobs Completed       : %d\n", s.Completed)
	fmt.Fprintf(w, "Throughput (per 1.0) : min %.0f  max %.0f  mean %.3f over %d buckets\n",
		s.Throughput.Min, s.Throughput.Max, s.Throughput.Mean, s.Throughput.Buckets)
	fmt.Fprintln(w, "class  arrived  completed  censored      mean       p50       p90       p99    jitter")
	for _, c := range s.Classes {
		_, err := fmt.Fprintf(w, "%5d  %7d  %9d  %8d  %8.4f  %8.4f  %8.4f  %8.4f  %8.4f\n",
			c.Class, c.Arrived, c.Completed, c.Censored,
			c.MeanSojourn, c.P50Sojourn, c.P90Sojourn, c.P99Sojourn, c.Jitter)
		if err != nil {
			return err
		}
	}
	return nil
}

// PrintComparison writes the cross-replication table to w.
func PrintComparison(w io.Writer, cmp []ClassComparison, replications int) error {
	if _, err := fmt.Fprintf(w, "=== %d Replications ===\n", replications); err != nil {
		return err
	}
	fmt.Fprintln(w, "class  runs  mean sojourn    std dev")
	for _, c := range cmp {
		if _, err := fmt.Fprintf(w, "%5d  %4d  %12.4f  %9.4f\n", c.Class, c.Runs, c.Mean, c.StdDev); err != nil {
			return err
		}
	}
	return nil
}
