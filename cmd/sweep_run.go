package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fedsweep/fedsweep/sweep"
)

// gridCmd runs one partitioning trial per (N, T) grid point
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Grid search over the task and time thresholds",
	Run: func(cmd *cobra.Command, args []string) {
		runSweep(cmd, sweep.ModeGridSearch)
	},
}

// evaluateCmd compares partitioning against repeated randomized trials
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare the partitioning strategy against repeated randomized placement",
	Run: func(cmd *cobra.Command, args []string) {
		runSweep(cmd, sweep.ModeEvaluation)
	},
}

// resolveConfig loads the sweep config and applies CLI overrides.
func resolveConfig(cmd *cobra.Command) SweepConfig {
	cfg, err := loadSweepConfig(configPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	return cfg
}

func runSweep(cmd *cobra.Command, mode sweep.Mode) {
	cfg := resolveConfig(cmd)

	dirs := sweep.NewDirs(cfg.OutputDir, mode)
	if err := dirs.Create(); err != nil {
		logrus.Fatalf("%v", err)
	}

	all, err := sweep.StandardTopologies()
	if err != nil {
		logrus.Fatalf("building topologies: %v", err)
	}
	topologies, err := sweep.SelectTopologies(all, cfg.Topologies)
	if err != nil {
		logrus.Fatalf("%v", err)
	}

	engine := sweep.NewJavaEngine(cfg.Engine)
	catalog := &sweep.Catalog{Engine: engine, InputsDir: dirs.Inputs}
	if len(cfg.Workflows.Synthetic.Generator) > 0 {
		catalog.Generator = sweep.CommandGenerator{Argv: cfg.Workflows.Synthetic.Generator}
	}

	table, err := os.Create(dirs.MasterTable)
	if err != nil {
		logrus.Fatalf("creating master table: %v", err)
	}
	defer func() { _ = table.Close() }()
	aggregator, err := sweep.NewAggregator(table, mode)
	if err != nil {
		logrus.Fatalf("%v", err)
	}

	sweepID := uuid.NewString()
	metrics := sweep.NewMetrics(sweepID)
	controller := &sweep.Controller{
		Mode:          mode,
		Sources:       cfg.Sources(dirs.SyntheticWorkflows),
		Resolver:      catalog,
		Topologies:    topologies,
		Distributions: cfg.Distributions,
		Grid: sweep.GridConfig{
			TaskThresholds: cfg.Grid.TaskThresholds,
			TimeThresholds: cfg.Grid.TimeThresholds,
		},
		Evaluation: sweep.EvaluationConfig{
			Params: sweep.Hyperparameters{
				TaskThreshold: cfg.Evaluation.TaskThreshold,
				TimeThreshold: cfg.Evaluation.TimeThreshold,
			},
			RandomRepetitions: cfg.Evaluation.RandomRepetitions,
		},
		Executor:   sweep.NewExecutor(engine, dirs),
		Aggregator: aggregator,
		Metrics:    metrics,
		RNG:        sweep.NewRNG(sweep.NewSweepKey(cfg.Seed)),
	}

	logrus.Infof("Starting %s sweep %s: seed=%d, %d workflows, %d topologies, %d distributions",
		mode, sweepID, cfg.Seed, len(controller.Sources), len(topologies), cfg.Distributions)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	report, runErr := controller.Run(ctx)

	if err := metrics.WriteTextfile(dirs.Metrics); err != nil {
		logrus.Errorf("%v", err)
	}
	if report != nil {
		for _, a := range report.Anomalies {
			logrus.Warnf("anomaly: %s", a)
		}
		logrus.Infof("Sweep %s: %d trials (%d succeeded, %d failed), %d anomalies, %d rows in %s, took %v",
			sweepID, report.Trials, report.Succeeded, report.Failed, len(report.Anomalies),
			aggregator.Rows(), dirs.MasterTable, time.Since(startTime))
	}
	if runErr != nil {
		logrus.Fatalf("Sweep stopped: %v", runErr)
	}
	logrus.Info("Sweep complete.")
}

func init() {
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(evaluateCmd)
}
