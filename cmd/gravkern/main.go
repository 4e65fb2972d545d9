package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	dt           float64
	stepsPerLeap int
	leaps        int
	workers      int
	sizes        []int
	allowAnyMass bool

	numBodies    int
	radius       float64
	totalMass    float64
	maxSpeed     float64
	seed         int64
	zeroMomentum bool

	save        bool
	jsonOut     string
	exportOut   string
	metricsAddr string
	snapEvery   int

	dts         []float64
	sweepLimit  int
	plotSeries  string
	plotHeight  int
	plotWidth   int
	svgOut      string
	svgWidth    int
	svgHeight   int
	svgTheme    string
	benchSteps  int
	benchRounds int
)

// main registers the gravkern commands and exits 1 if the selected command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "gravkern",
		Short:         "gravitational n-body kernel and host loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravkern", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export the run as JSON to this path (- for stdout)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	runCmd.Flags().IntVar(&snapEvery, "snapshot-every", 1, "keep one snapshot per this many leaps")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run one scenario under several time steps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&dts, "dts", nil, "time steps to compare (default: dt, dt/2, dt/4, dt*2)")
	sweepCmd.Flags().IntVar(&sweepLimit, "parallel", 0, "concurrent runs (0 = one per CPU)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSeries, "series", "drift", "series to plot (drift, energy, separation, momentum)")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&exportOut, "output", "o", "-", "output path (- for stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the trajectories of a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output path (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 800, "image height in pixels")
	exportSVGCmd.Flags().StringVar(&svgTheme, "theme", "night", "colour theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with the current settings",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	addRunFlags(initCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the kernel at every supported size",
		RunE:  benchKernel,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 100, "steps per leap")
	benchCmd.Flags().IntVar(&benchRounds, "rounds", 3, "leaps per measurement")
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", nil, "ensemble sizes (default: kernel sizes)")

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd, benchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")

	f.Float64Var(&dt, "dt", 60, "time step in seconds")
	f.IntVar(&stepsPerLeap, "steps", 60, "steps per leap")
	f.IntVar(&leaps, "leaps", 200, "number of leaps")
	f.IntVar(&workers, "workers", 0, "acceleration workers (0 = one per CPU)")
	f.IntSliceVar(&sizes, "sizes", nil, "accepted ensemble sizes (default 3,60,2048)")
	f.BoolVar(&allowAnyMass, "allow-any-mass", false, "pass zero and negative masses to the core")

	f.IntVar(&numBodies, "bodies", 60, "number of bodies (ball, line, coincident, moon-ring with the Earth)")
	f.Float64Var(&radius, "radius", 0, "scenario radius in metres")
	f.Float64Var(&totalMass, "mass", 0, "scenario total mass in kg")
	f.Float64Var(&maxSpeed, "max-speed", 0, "largest initial speed in m/s (ball)")
	f.Int64Var(&seed, "seed", 1, "random seed")
	f.BoolVar(&zeroMomentum, "zero-momentum", false, "recentre the bodies on their centre of mass (two-bodies, which starts at rest)")
}
