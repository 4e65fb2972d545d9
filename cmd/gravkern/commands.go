package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/config"
	"github.com/san-kum/gravkern/internal/kernel"
	"github.com/san-kum/gravkern/internal/metrics"
	"github.com/san-kum/gravkern/internal/physics"
	"github.com/san-kum/gravkern/internal/scenario"
	"github.com/san-kum/gravkern/internal/sim"
	"github.com/san-kum/gravkern/internal/storage"
	"github.com/san-kum/gravkern/internal/telemetry"
	"github.com/san-kum/gravkern/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log := slog.Default()

	ens, err := buildEnsemble(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	collector := telemetry.New()
	if cfg.Output.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.Output.MetricsAddr, log); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	s := sim.New(newKernel(cfg, log),
		sim.WithLogger(log),
		sim.WithRecorder(collector),
		sim.WithSnapshotEvery(snapEvery))
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	run := storage.Run{Scenario: cfg.Scenario, Seed: cfg.Params.Seed, Config: cfg.Run()}
	log.Info("running simulation",
		"scenario", cfg.Scenario,
		"bodies", ens.Len(),
		"dt", cfg.Dt,
		"steps_per_leap", cfg.StepsPerLeap,
		"leaps", cfg.Leaps)

	start := time.Now()
	result, err := s.Run(ctx, ens, cfg.Run())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	if cfg.Output.Save {
		st := storage.New(cfg.Output.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(run, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, storage.NewMetadata(run, result), result.Snapshots); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d of %d\n", result.StepsTaken, cfg.StepsPerLeap*cfg.Leaps)
	fmt.Printf("simulated: %.4g s\n", result.Final().Time)
	if result.Halted {
		fmt.Printf("halted: %v\n", result.Errors[0])
	}
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("leaps") && configFile == "" && preset == "" {
		cfg.Leaps = 0
	}

	ens, err := buildEnsemble(cfg)
	if err != nil {
		return err
	}

	// Kernel warnings would corrupt the alternate screen.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := viz.NewLiveModel(cfg.Scenario, newKernel(cfg, quiet), ens, cfg.Run())

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if lm, ok := final.(viz.LiveModel); ok {
		lm.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log := slog.Default()

	ens, err := buildEnsemble(cfg)
	if err != nil {
		return err
	}

	steps := dts
	if len(steps) == 0 {
		steps = []float64{cfg.Dt * 2, cfg.Dt, cfg.Dt / 2, cfg.Dt / 4}
	}
	limit := sweepLimit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	sweepCfg := sim.SweepConfig{
		Run:   cfg.Run(),
		Dts:   steps,
		Limit: limit,
		NewStepper: func() sim.Stepper {
			// Runs already proceed in parallel; keep each kernel serial.
			c := *cfg
			c.Workers = 1
			return newKernel(&c, log)
		},
		NewMetrics: metrics.Default,
		Options:    []sim.Option{sim.WithLogger(log), sim.WithSnapshotEvery(cfg.Leaps)},
	}

	fmt.Printf("sweeping %s over %d time steps\n\n", cfg.Scenario, len(steps))
	start := time.Now()
	points, err := sim.Sweep(cmd.Context(), ens, sweepCfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tHALTED\tENERGY DRIFT\tMOMENTUM DRIFT\tCLOSEST")
	drifts := make([]float64, 0, len(points))
	for _, p := range points {
		fmt.Fprintf(w, "%g\t%d\t%v\t%.3e\t%.3e\t%.4g\n",
			p.Dt, p.StepsTaken, p.Halted, p.EnergyDrift,
			p.Metrics["momentum_drift"], p.Metrics["min_separation"])
		if !p.Halted {
			drifts = append(drifts, p.EnergyDrift)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sum := metrics.Summarize(drifts)
	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	fmt.Printf("energy drift over %d completed runs: mean %.3e, std %.3e, min %.3e, max %.3e\n",
		sum.Count, sum.Mean, sum.StdDev, sum.Min, sum.Max)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tDT\tSTEPS\tHALTED\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%gs\t%d\t%v\t%.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Dt,
			run.StepsTaken,
			run.Halted,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, ensembles, err := st.Ensembles(runID)
	if err != nil {
		return err
	}
	if len(ensembles) == 0 {
		return fmt.Errorf("no data to plot")
	}

	var series []float64
	var caption string
	switch plotSeries {
	case "energy":
		caption = "total energy (J)"
		for _, e := range ensembles {
			series = append(series, physics.Energy(e))
		}
	case "drift":
		caption = "log10 relative energy drift"
		m := metrics.NewEnergyDrift()
		for _, e := range ensembles {
			m.Observe(e, 0)
		}
		series = viz.Log10(m.Series(), -16)
	case "momentum":
		caption = "|momentum| (kg m/s)"
		for _, e := range ensembles {
			series = append(series, r3.Norm(physics.Momentum(e)))
		}
	case "separation":
		caption = "closest pair (m)"
		for _, e := range ensembles {
			if d := physics.MinSeparation(e); !math.IsInf(d, 0) {
				series = append(series, d)
			}
		}
	default:
		return fmt.Errorf("unknown series %q (drift, energy, separation, momentum)", plotSeries)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s, %d bodies, dt %gs\n", meta.Scenario, meta.Bodies, meta.Dt)
	fmt.Printf("snapshots: %d\n\n", len(ensembles))

	out := viz.PlotSeries(series, caption, plotWidth, plotHeight)
	if out == "" {
		return fmt.Errorf("series %q has no finite values", plotSeries)
	}
	fmt.Println(out)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(exportOut, *meta, snaps)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	_, ensembles, err := st.Ensembles(runID)
	if err != nil {
		return err
	}

	path := svgOut
	if path == "" {
		path = runID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := viz.WriteTrajectorySVG(f, ensembles, viz.NewCamera(), svgWidth, svgHeight, viz.GetTheme(svgTheme)); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return f.Close()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSCENARIO\tDT\tSTEPS/LEAP\tLEAPS\tSPAN")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%gs\t%d\t%d\t%.3g d\n",
			name, p.Scenario, p.Dt, p.StepsPerLeap, p.Leaps,
			p.Run().Duration()/86400)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func benchKernel(cmd *cobra.Command, args []string) error {
	ns := sizes
	if len(ns) == 0 {
		ns = kernel.DefaultSupportedSizes
	}
	workerCounts := []int{1, runtime.NumCPU()}

	fmt.Printf("benchmarking leapfrog, %d steps x %d leaps\n\n", benchSteps, benchRounds)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC\tPAIRS/SEC")

	for _, n := range ns {
		p := scenario.DefaultParams()
		p.Bodies = n
		p.MaxSpeed = 1e3
		ens, err := scenario.Ball(p)
		if err != nil {
			return err
		}

		for _, wc := range workerCounts {
			k := kernel.New(kernel.WithSupportedSizes(n), kernel.WithWorkers(wc))
			e := ens.Clone()

			done := 0
			start := time.Now()
			for r := 0; r < benchRounds; r++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				d, err := k.TryLeap(benchSteps, 60, e.Masses, e.Positions, e.Velocities)
				if err != nil {
					return err
				}
				done += d
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(done) / elapsed.Seconds()
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%.3g\n",
				n, wc, done, elapsed.Round(time.Microsecond), stepsPerSec, stepsPerSec*float64(n*(n-1)))
		}
	}

	return w.Flush()
}
