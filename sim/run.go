package sim

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RunSimulation builds a simulator from cfg, runs it to cfg.Horizon and
// returns one record per admitted job, ordered by job identity. Records of
// jobs still waiting or in service at the horizon carry no departure.
// On any error no records are returned.
func RunSimulation(cfg Config) ([]Record, error) {
	res, err := Simulate(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Simulate runs one simulation with the given hooks attached and returns its
// records and counters.
func Simulate(ctx context.Context, cfg Config, hooks ...Hook) (*RunResult, error) {
	s, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		s.AcceptHook(h)
	}
	if err := s.RunContext(ctx, s.Config.Horizon); err != nil {
		return nil, err
	}
	return s.Results()
}

// RunReplications runs n independent simulations of cfg with seeds
// cfg.Seed, cfg.Seed+1, ..., cfg.Seed+n-1. Each replication owns its own
// simulator, so they run in parallel without shared state. Results are
// returned in seed order; the first failure cancels the remaining runs.
// A negative n is rejected with ErrInvalidConfig.
func RunReplications(ctx context.Context, cfg Config, n int) ([]*RunResult, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "replications must be >= 0, got %d", n)
	}
	results := make([]*RunResult, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		rep := cfg
		rep.Seed = cfg.Seed + int64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Simulate(ctx, rep)
			if err != nil {
				return err
			}
			logrus.Infof("Replication seed=%d: %d admitted, %d completed", rep.Seed, res.Stats.Admitted, res.Stats.Completed)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
