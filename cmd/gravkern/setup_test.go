package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/gravkern/internal/config"
	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/scenario"
)

func testCommand(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)
	if err := cmd.Flags().Parse(flags); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestEveryScenarioRunsWithDefaults(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, name := range scenario.NewRegistry().List() {
		t.Run(name, func(t *testing.T) {
			cfg, err := resolveConfig(testCommand(t), []string{name})
			if err != nil {
				t.Fatalf("resolve config: %v", err)
			}
			ens, err := buildEnsemble(cfg)
			if err != nil {
				t.Fatalf("build ensemble: %v", err)
			}
			if _, err := newKernel(cfg, quiet).TryLeap(1, cfg.Dt, ens.Masses, ens.Positions, ens.Velocities); err != nil {
				t.Errorf("one leap of %d bodies: %v", ens.Len(), err)
			}
		})
	}
}

func TestWithScenarioSize(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "two-bodies"
	withScenarioSize(cfg)
	if len(cfg.SupportedSizes) != 4 || cfg.SupportedSizes[3] != 2 {
		t.Errorf("expected the defaults plus 2, got %v", cfg.SupportedSizes)
	}

	cfg = config.DefaultConfig()
	cfg.SupportedSizes = []int{2, 60}
	cfg.Scenario = "two-bodies"
	withScenarioSize(cfg)
	if len(cfg.SupportedSizes) != 2 {
		t.Errorf("size already accepted, got %v", cfg.SupportedSizes)
	}

	cfg = config.DefaultConfig()
	cfg.Scenario = "ball"
	withScenarioSize(cfg)
	if cfg.SupportedSizes != nil {
		t.Errorf("ball should keep the kernel defaults, got %v", cfg.SupportedSizes)
	}
}

func TestExplicitSizesAreKept(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := resolveConfig(testCommand(t, "--sizes", "3"), []string{"two-bodies"})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if len(cfg.SupportedSizes) != 1 || cfg.SupportedSizes[0] != 3 {
		t.Fatalf("expected --sizes to win, got %v", cfg.SupportedSizes)
	}

	ens, err := buildEnsemble(cfg)
	if err != nil {
		t.Fatalf("build ensemble: %v", err)
	}
	_, err = newKernel(cfg, quiet).TryLeap(1, cfg.Dt, ens.Masses, ens.Positions, ens.Velocities)
	if !errors.Is(err, dynamo.ErrUnsupportedSize) {
		t.Errorf("expected unsupported size, got %v", err)
	}
}

func TestRunFlagHelp(t *testing.T) {
	f := testCommand(t).Flags()

	if usage := f.Lookup("max-speed").Usage; strings.Contains(usage, "two-bodies") {
		t.Errorf("two-bodies does not read max speed: %q", usage)
	}
	if usage := f.Lookup("zero-momentum").Usage; !strings.Contains(usage, "centre of mass") {
		t.Errorf("zero-momentum recentres positions: %q", usage)
	}
}
