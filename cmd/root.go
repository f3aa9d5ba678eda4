package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Persistent CLI flags shared by every subcommand
	configPath string // Path to a sweep YAML config; empty uses built-in defaults
	seed       int64  // Seed of the sweep random stream
	outputDir  string // Root of the per-mode output tree
	logLevel   string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fedsweep",
	Short: "Parameter sweeps of federated workflow execution against an external simulator",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up persistent flags; subcommands attach themselves in their own files
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to sweep config YAML (defaults built in)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for file distribution and randomized trials")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "Root directory for inputs, run configs, logs and results")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
