package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fedsweep/fedsweep/sweep"
)

var summaryTable string

// summarizeCmd prints per-group statistics of a master table
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Mean and spread of transfer factors per workflow, topology and strategy",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(summaryTable)
		if err != nil {
			logrus.Fatalf("Opening master table: %v", err)
		}
		defer func() { _ = f.Close() }()
		rows, err := sweep.ReadTable(f)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := printSummary(cmd.OutOrStdout(), sweep.Summarize(rows)); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// printSummary renders summaries as an aligned table, values rounded to two decimals.
func printSummary(w io.Writer, groups []sweep.GroupSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKFLOW\tCONFIG\tSTRATEGY\tN\tT\tTRIALS\tFAILED\tTF-SIZE\tTF-SIZE-SD\tTF-TIME\tTF-TIME-SD\tMAKESPAN")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%v\t%v\t%v\t%v\t%v\n",
			g.Workflow, g.Topology, g.Strategy, g.Params.TaskThreshold, g.Params.TimeThreshold,
			g.Trials, g.Failures,
			sweep.Round2(g.SizeMean), sweep.Round2(g.SizeStdDev),
			sweep.Round2(g.TimeMean), sweep.Round2(g.TimeStdDev),
			sweep.Round2(g.MakespanMean))
	}
	return tw.Flush()
}

func init() {
	summarizeCmd.Flags().StringVar(&summaryTable, "table", "", "Master result table produced by grid or evaluate")
	_ = summarizeCmd.MarkFlagRequired("table")

	rootCmd.AddCommand(summarizeCmd)
}
