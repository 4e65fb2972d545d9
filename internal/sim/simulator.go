package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithSnapshotEvery keeps one snapshot per n leaps. The initial and final
// states are always kept.
func WithSnapshotEvery(n int) Option {
	return func(s *Simulator) { s.snapshotEvery = max(n, 1) }
}

// Simulator is the host loop: it calls the stepper once per leap and commits
// the state between leaps.
type Simulator struct {
	stepper       Stepper
	metrics       []dynamo.Metric
	observers     []dynamo.Observer
	recorder      Recorder
	log           *slog.Logger
	snapshotEvery int
}

func New(stepper Stepper, opts ...Option) *Simulator {
	s := &Simulator{
		stepper:       stepper,
		metrics:       make([]dynamo.Metric, 0),
		observers:     make([]dynamo.Observer, 0),
		log:           slog.Default(),
		snapshotEvery: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run advances a copy of e by cfg.Leaps leaps of cfg.StepsPerLeap steps.
//
// Numeric breakdown is not an error: the run stops, Result.Halted is set and
// the SimulationError is appended to Result.Errors. The returned error is
// reserved for invalid input, rejected kernel calls and cancellation; in the
// last case the partial result is returned with it.
func (s *Simulator) Run(ctx context.Context, e *dynamo.Ensemble, cfg dynamo.Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	x := e.Clone()
	result := &Result{
		Names:     slices.Clone(x.Names),
		Masses:    slices.Clone(x.Masses),
		Snapshots: make([]Snapshot, 0, cfg.Leaps/s.snapshotEvery+2),
		Errors:    make([]error, 0),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	initialEnergy := physics.Energy(x)
	s.commit(result, x, 0, t, true)

	for leap := 1; leap <= cfg.Leaps; leap++ {
		select {
		case <-ctx.Done():
			s.finish(result, x, initialEnergy)
			return result, ctx.Err()
		default:
		}

		start := time.Now()
		done, err := s.stepper.TryLeap(cfg.StepsPerLeap, cfg.Dt, x.Masses, x.Positions, x.Velocities)
		if err != nil {
			return nil, fmt.Errorf("leap %d: %w", leap, err)
		}
		if s.recorder != nil {
			s.recorder.ObserveLeap(x.Len(), cfg.StepsPerLeap, done, time.Since(start))
		}

		result.StepsTaken += done
		t += float64(done) * cfg.Dt

		if done < cfg.StepsPerLeap {
			result.Halted = true
			serr := &dynamo.SimulationError{
				Leap:    leap,
				Step:    result.StepsTaken,
				Time:    t,
				Wrapped: dynamo.ErrNumericBreakdown,
			}
			result.Errors = append(result.Errors, serr)
			s.log.Info("simulation halted", "leap", leap, "step", result.StepsTaken, "time", t)
			if done > 0 {
				s.commit(result, x, leap, t, true)
			} else if last := result.Final(); last.Leap != leap-1 {
				result.Snapshots = append(result.Snapshots, snapshot(x, leap-1, t))
			}
			break
		}

		s.commit(result, x, leap, t, leap%s.snapshotEvery == 0 || leap == cfg.Leaps)
	}

	s.finish(result, x, initialEnergy)
	return result, nil
}

// commit notifies metrics and observers and optionally records a snapshot.
func (s *Simulator) commit(r *Result, x *dynamo.Ensemble, leap int, t float64, snap bool) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnLeap(x, leap, t)
	}
	if snap {
		r.Snapshots = append(r.Snapshots, snapshot(x, leap, t))
	}
}

func snapshot(x *dynamo.Ensemble, leap int, t float64) Snapshot {
	return Snapshot{
		Leap:       leap,
		Time:       t,
		Positions:  slices.Clone(x.Positions),
		Velocities: slices.Clone(x.Velocities),
	}
}

func (s *Simulator) finish(r *Result, x *dynamo.Ensemble, initialEnergy float64) {
	if initialEnergy != 0 && !math.IsInf(initialEnergy, 0) && !math.IsNaN(initialEnergy) {
		r.EnergyDrift = math.Abs(physics.Energy(x)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive and finite, got %g", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.StepsPerLeap < 1 {
		return fmt.Errorf("%w: steps per leap must be at least 1, got %d", dynamo.ErrParameterBounds, cfg.StepsPerLeap)
	}
	if cfg.Leaps < 1 {
		return fmt.Errorf("%w: leaps must be at least 1, got %d", dynamo.ErrParameterBounds, cfg.Leaps)
	}
	return nil
}

// RunWithCallback steps e in place, calling fn with the committed state
// after every leap until fn returns false, the stepper halts, cfg.Leaps is
// reached or ctx is cancelled. cfg.Leaps <= 0 runs until one of the others.
// On a halt fn still sees the last good state, with Progress.Halted set.
func (s *Simulator) RunWithCallback(ctx context.Context, e *dynamo.Ensemble, cfg dynamo.Config, fn func(Progress) bool) error {
	check := cfg
	if check.Leaps <= 0 {
		check.Leaps = 1
	}
	if err := validateConfig(check); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}

	p := Progress{Ensemble: e}
	for leap := 1; cfg.Leaps <= 0 || leap <= cfg.Leaps; leap++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		done, err := s.stepper.TryLeap(cfg.StepsPerLeap, cfg.Dt, e.Masses, e.Positions, e.Velocities)
		if err != nil {
			return err
		}
		if s.recorder != nil {
			s.recorder.ObserveLeap(e.Len(), cfg.StepsPerLeap, done, time.Since(start))
		}
		p.Leap = leap
		p.Steps += done
		p.Time += float64(done) * cfg.Dt
		p.Halted = done < cfg.StepsPerLeap

		if !fn(p) {
			return nil
		}
		if p.Halted {
			return &dynamo.SimulationError{Leap: leap, Step: p.Steps, Time: p.Time, Wrapped: dynamo.ErrNumericBreakdown}
		}
	}
	return nil
}
