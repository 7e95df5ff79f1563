package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/pqsim/sim"
	"github.com/inference-sim/pqsim/sim/analysis"
	"github.com/inference-sim/pqsim/sim/export"
	"github.com/inference-sim/pqsim/sim/telemetry"
)

var (
	// CLI flags for the queue model
	configPath     string    // YAML scenario file
	arrivalRates   []float64 // One arrival rate per priority class, highest priority first
	serviceRate    float64   // Service parameter, see --service-mode
	horizon        float64   // Simulated-time limit
	dispatchTick   float64   // Dispatcher polling cadence
	arrivalProcess string    // Interarrival distribution
	serviceMode    string    // Meaning of --service-rate
	seed           int64     // Master seed
	replications   int       // Number of independent runs (replicate only)

	// CLI flags for output
	logLevel   string // Log verbosity level
	resultsCSV string // Per-job CSV output path
	sqlitePath string // SQLite database name
	metricsOut string // Prometheus textfile output path
	plotPath   string // Time-in-system plot output path
)

// autoSQLiteName is the --sqlite value used when the flag is given without a
// name; the database then gets a unique pqsim_<id>.sqlite3 name.
const autoSQLiteName = "auto"

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pqsim",
	Short: "Discrete-event simulator for a multi-class priority queue",
}

// runCmd executes one simulation using parameters from the scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print per-class statistics",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		sc, err := resolveScenario(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		if err := runOnce(cmd.Context(), sc, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// replicateCmd runs independent replications and compares them
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run independent replications with consecutive seeds and compare them",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		sc, err := resolveScenario(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		if err := runReplications(cmd.Context(), sc, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Replications failed: %v", err)
		}
		logrus.Info("Replications complete.")
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func warnIfUnstable(cfg sim.Config) {
	if load := cfg.WithDefaults().OfferedLoad(); load >= 1 {
		logrus.Warnf("Offered load %.3f >= 1: the queue grows without bound and low-priority classes may starve", load)
	}
}

// runOnce simulates sc once, prints the summary to out and writes the
// requested output files.
func runOnce(ctx context.Context, sc *Scenario, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	warnIfUnstable(sc.Config)
	logrus.Infof("Starting simulation with arrival rates %v, service rate %v, horizon %v, seed %d",
		sc.ArrivalRates, sc.ServiceRate, sc.Horizon, sc.Seed)

	var hooks []sim.Hook
	var collector *telemetry.Collector
	if metricsOut != "" {
		collector = telemetry.NewCollector()
		hooks = append(hooks, collector)
	}

	start := time.Now()
	res, err := sim.Simulate(ctx, sc.Config, hooks...)
	if err != nil {
		return err
	}
	logrus.Infof("Simulated %d events in %v", res.Stats.EventCount, time.Since(start))

	summary := analysis.Summarize(res.Records, sc.NumClasses())
	if err := summary.Print(out); err != nil {
		return err
	}
	fmt.Fprintf(out, "Server Utilization   : %.4f (offered load %.4f)\n",
		res.Stats.Utilization(), sc.WithDefaults().OfferedLoad())
	fmt.Fprintf(out, "Left in System       : %d waiting, in service: %v\n", res.Stats.Waiting, res.Stats.InService)

	if resultsCSV != "" {
		if err := writeCSVFile(resultsCSV, res.Records); err != nil {
			return err
		}
	}
	if plotPath != "" {
		if err := export.WritePlot(plotPath, res.Records, sc.NumClasses()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Plot                 : %s\n", plotPath)
	}
	if sqlitePath != "" {
		if err := writeSQLite(sqlitePath, []*sim.RunResult{res}, sc.NumClasses(), out); err != nil {
			return err
		}
	}
	if collector != nil {
		if err := collector.WriteTextfile(metricsOut); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// runReplications runs sc.Replications independent simulations and prints
// the cross-run comparison.
func runReplications(ctx context.Context, sc *Scenario, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sc.Replications < 1 {
		return fmt.Errorf("replications must be at least 1, got %d", sc.Replications)
	}
	warnIfUnstable(sc.Config)

	results, err := sim.RunReplications(ctx, sc.Config, sc.Replications)
	if err != nil {
		return err
	}
	summaries := make([]*analysis.Summary, len(results))
	for i, res := range results {
		summaries[i] = analysis.Summarize(res.Records, sc.NumClasses())
	}
	if err := analysis.PrintComparison(out, analysis.CompareReplications(summaries), len(results)); err != nil {
		return err
	}
	if sqlitePath != "" {
		return writeSQLite(sqlitePath, results, sc.NumClasses(), out)
	}
	return nil
}

func writeCSVFile(path string, records []sim.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSQLite stores every run in one database and reports its file name to
// out. autoSQLiteName lets the writer pick a unique name.
func writeSQLite(name string, results []*sim.RunResult, numClasses int, out io.Writer) error {
	if name == autoSQLiteName {
		name = ""
	}
	w, err := export.NewSQLiteWriter(name)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, res := range results {
		if err := w.WriteRecords(res.Seed, res.Records); err != nil {
			return err
		}
		if err := w.WriteSummary(res.Seed, analysis.Summarize(res.Records, numClasses)); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Results Database     : %s\n", w.Filename)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerConfigFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "YAML scenario file; explicitly set flags override its values")
	c.Flags().Float64SliceVar(&arrivalRates, "arrival-rates", nil, "Comma-separated arrival rates, one per class (class 0 is served first)")
	c.Flags().Float64Var(&serviceRate, "service-rate", 1.0, "Service parameter: mean service time (mean mode) or rate (rate mode)")
	c.Flags().Float64Var(&horizon, "horizon", 1000, "Simulated-time limit")
	c.Flags().Float64Var(&dispatchTick, "dispatch-tick", sim.DefaultDispatchTick, "Dispatcher polling interval")
	c.Flags().StringVar(&arrivalProcess, "arrival-process", "poisson", "Interarrival distribution (poisson, exponential)")
	c.Flags().StringVar(&serviceMode, "service-mode", "mean", "Meaning of --service-rate (mean, rate)")
	c.Flags().Int64Var(&seed, "seed", sim.DefaultSeed, "Seed for all random streams")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&sqlitePath, "sqlite", "", "Write records and class summaries to a SQLite database; --sqlite alone picks a unique name, --sqlite=NAME sets it")
	c.Flags().Lookup("sqlite").NoOptDefVal = autoSQLiteName
}

// init sets up CLI flags and subcommands
func init() {
	registerConfigFlags(runCmd)
	runCmd.Flags().StringVar(&resultsCSV, "results-csv", "", "Write per-job records to this CSV file")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&plotPath, "plot", "", "Write a time-in-system plot per class to this image file (.png, .svg, .pdf)")

	registerConfigFlags(replicateCmd)
	replicateCmd.Flags().IntVar(&replications, "replications", 10, "Number of independent runs (seeds seed..seed+n-1)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replicateCmd)
}
