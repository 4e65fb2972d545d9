package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/gravkern/internal/config"
	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/kernel"
	"github.com/san-kum/gravkern/internal/scenario"
)

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q (text, json)", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("steps") {
		cfg.StepsPerLeap = stepsPerLeap
	}
	if f.Changed("leaps") {
		cfg.Leaps = leaps
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("sizes") {
		cfg.SupportedSizes = sizes
	} else {
		withScenarioSize(cfg)
	}
	if f.Changed("allow-any-mass") {
		cfg.AllowAnyMass = allowAnyMass
	}
	if f.Changed("bodies") {
		cfg.Params.Bodies = numBodies
	}
	if f.Changed("radius") {
		cfg.Params.Radius = radius
	}
	if f.Changed("mass") {
		cfg.Params.TotalMass = totalMass
	}
	if f.Changed("max-speed") {
		cfg.Params.MaxSpeed = maxSpeed
	}
	if f.Changed("seed") {
		cfg.Params.Seed = seed
	}
	if f.Changed("zero-momentum") {
		cfg.Params.ZeroMomentum = zeroMomentum
	}
	if f.Lookup("save") != nil && f.Changed("save") {
		cfg.Output.Save = save
	}
	if f.Lookup("metrics-addr") != nil && f.Changed("metrics-addr") {
		cfg.Output.MetricsAddr = metricsAddr
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.Output.DataDir == "" {
		cfg.Output.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withScenarioSize adds the size a fixed-size scenario always builds to the
// accepted sizes, starting from the kernel defaults when none are set.
func withScenarioSize(cfg *config.Config) {
	n, ok := scenario.NewRegistry().FixedSize(cfg.Scenario)
	if !ok {
		return
	}
	accepted := cfg.SupportedSizes
	if len(accepted) == 0 {
		accepted = kernel.DefaultSupportedSizes
	}
	if slices.Contains(accepted, n) {
		return
	}
	cfg.SupportedSizes = append(slices.Clone(accepted), n)
}

func newKernel(cfg *config.Config, log *slog.Logger) *kernel.Kernel {
	opts := []kernel.Option{
		kernel.WithWorkers(cfg.Workers),
		kernel.WithLogger(log),
	}
	if len(cfg.SupportedSizes) > 0 {
		opts = append(opts, kernel.WithSupportedSizes(cfg.SupportedSizes...))
	}
	if cfg.AllowAnyMass {
		opts = append(opts, kernel.WithMassPolicy(kernel.MassPassThrough))
	}
	return kernel.New(opts...)
}

func buildEnsemble(cfg *config.Config) (*dynamo.Ensemble, error) {
	return scenario.NewRegistry().Build(cfg.Scenario, cfg.ScenarioParams())
}
