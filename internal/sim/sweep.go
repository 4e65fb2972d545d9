package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravkern/internal/dynamo"
)

// SweepPoint is the outcome of one run in a sweep.
type SweepPoint struct {
	Dt          float64
	StepsTaken  int
	Halted      bool
	EnergyDrift float64
	Metrics     map[string]float64
}

// SweepConfig runs one ensemble under several time steps.
type SweepConfig struct {
	Run   dynamo.Config
	Dts   []float64
	Limit int

	// NewStepper builds the stepper for one run. Each run gets its own so
	// runs of the same size do not serialise on a shared one.
	NewStepper func() Stepper

	// NewMetrics builds fresh metrics for one run. Optional.
	NewMetrics func() []dynamo.Metric

	Options []Option
}

// Sweep runs e once per entry of cfg.Dts, at most cfg.Limit at a time. Each
// run keeps cfg.Run's total simulated time, so smaller dt values take
// proportionally more steps per leap. Points are returned in the order of
// cfg.Dts. The first run error cancels the rest.
func Sweep(ctx context.Context, e *dynamo.Ensemble, cfg SweepConfig) ([]SweepPoint, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(cfg.Dts))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Limit > 0 {
		g.SetLimit(cfg.Limit)
	}

	for i, dt := range cfg.Dts {
		g.Go(func() error {
			run := scaleRun(cfg.Run, dt)
			s := New(cfg.NewStepper(), cfg.Options...)
			if cfg.NewMetrics != nil {
				for _, m := range cfg.NewMetrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(gctx, e, run)
			if err != nil {
				return err
			}
			points[i] = SweepPoint{
				Dt:          dt,
				StepsTaken:  res.StepsTaken,
				Halted:      res.Halted,
				EnergyDrift: res.EnergyDrift,
				Metrics:     res.Metrics,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// scaleRun keeps the leap duration of base while stepping with dt.
func scaleRun(base dynamo.Config, dt float64) dynamo.Config {
	run := base
	run.Dt = dt
	if dt > 0 {
		leap := base.Dt * float64(base.StepsPerLeap)
		run.StepsPerLeap = max(int(leap/dt+0.5), 1)
	}
	return run
}
