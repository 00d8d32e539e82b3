package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/policy"
	"github.com/parksim/parksim/sim/social"
	"github.com/parksim/parksim/sim/trace"
	"github.com/parksim/parksim/sim/workload"
)

var (
	// CLI flags for the park engine
	configPath     string // Park YAML file; empty uses the built-in park
	seed           int64  // Master seed for all RNG partitions
	horizonTicks   int64  // Park day length in simulated minutes
	tickIntervalMS int64  // Wall milliseconds per simulated minute
	logLevel       string // Log verbosity level

	// CLI flags for arrival generation
	arrivalRate  float64 // Parties per simulated minute
	maxVisitors  int     // Total population cap (0 = unlimited)
	scenarioName string  // Arrival preset replacing the file's arrival plan

	// CLI flags for observation
	eventsPath  string // JSONL event export path; empty disables export
	statusTicks int64  // Simulated minutes between status lines (0 = off)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "parksim",
	Short: "Discrete-event theme park simulator",
}

// runCmd executes one park day using parameters from flags and YAML
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulated park day",
	Run:   runPark,
}

func runPark(cmd *cobra.Command, _ []string) {
	// Set up logging
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	// Load the park, then let explicit flags override the file
	pf := DefaultParkFile()
	if configPath != "" {
		pf, err = LoadParkFile(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load park config: %v", err)
		}
	}
	flags := cmd.Flags()
	if scenarioName != "" {
		if err := applyScenario(pf, scenarioName); err != nil {
			logrus.Fatalf("Failed to apply scenario: %v", err)
		}
	}
	if flags.Changed("seed") {
		pf.Engine.Seed = seed
	}
	if flags.Changed("horizon") {
		pf.Engine.HorizonTicks = horizonTicks
	}
	if flags.Changed("tick-ms") {
		pf.Engine.TickIntervalMS = tickIntervalMS
	}
	if flags.Changed("rate") {
		pf.Arrivals.Rate = arrivalRate
	}
	if flags.Changed("max-visitors") {
		pf.Arrivals.MaxVisitors = maxVisitors
	}

	// Build the arrival plan before anything runs: plan errors are config
	// errors and fatal here.
	key := sim.NewSimulationKey(pf.Engine.Seed)
	pf.Arrivals.Normalize()
	plan, err := workload.BuildPlan(&pf.Arrivals, pf.Engine.HorizonTicks, key)
	if err != nil {
		logrus.Fatalf("Failed to build arrival plan: %v", err)
	}

	park, err := sim.NewPark(&pf.Engine)
	if err != nil {
		logrus.Fatalf("Failed to build park: %v", err)
	}

	var recorder *trace.Recorder
	if eventsPath != "" {
		writer, err := trace.NewJSONLWriter(eventsPath)
		if err != nil {
			logrus.Fatalf("Failed to open event export: %v", err)
		}
		recorder = trace.NewRecorder(writer)
		park.SetObserver(recorder)
		logrus.Infof("exporting events to %s (run %s)", eventsPath, recorder.RunID())
	}

	gen := workload.NewGenerator(park, plan, social.NewRendezvous(), policy.Factory(key))

	logrus.Infof("Starting park day: seed=%d, horizon=%d min, %d rides, %d facilities, %d visitors planned",
		pf.Engine.Seed, pf.Engine.HorizonTicks, len(pf.Engine.Rides), len(pf.Engine.Facilities), gen.Planned())
	startTime := time.Now()

	if err := park.Start(context.Background()); err != nil {
		logrus.Fatalf("Failed to start park: %v", err)
	}
	park.Go(gen.Run)

	// SIGINT/SIGTERM closes the park early through the normal stop path.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.Warnf("received %v, closing the park", sig)
		park.Clock().Stop()
	}()

	if statusTicks > 0 {
		go runMonitor(park, gen, statusTicks)
	}

	<-park.Clock().StopC()
	report := park.Stop()
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			logrus.Errorf("Closing event export: %v", err)
		} else {
			logrus.Infof("exported %d event rows", recorder.Rows())
		}
	}

	park.Stats().Print(report.FinalTick)
	if !report.Graceful {
		logrus.Errorf("shutdown anomaly: %d goroutines still running after grace (forced=%v)",
			report.Stragglers, report.ForcedStop)
	}
	logrus.Infof("Park day complete in %s (shutdown %s).",
		time.Since(startTime).Round(time.Millisecond), report.Elapsed.Round(time.Millisecond))
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Park YAML file (default: built-in park)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for reproducible runs")
	runCmd.Flags().Int64Var(&horizonTicks, "horizon", 480, "Park day length in simulated minutes")
	runCmd.Flags().Int64Var(&tickIntervalMS, "tick-ms", 50, "Wall milliseconds per simulated minute")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Float64Var(&arrivalRate, "rate", 0.625, "Visitor parties per simulated minute")
	runCmd.Flags().IntVar(&maxVisitors, "max-visitors", 300, "Total visitor cap (0 = unlimited)")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "",
		"Arrival preset replacing the config's arrival plan ("+strings.Join(workload.ScenarioNames(), ", ")+")")

	runCmd.Flags().StringVar(&eventsPath, "events", "", "JSONL event export path (empty = off)")
	runCmd.Flags().Int64Var(&statusTicks, "status-every", 60, "Simulated minutes between status lines (0 = off)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
