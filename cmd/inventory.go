package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fedsweep/fedsweep/sweep"
)

var (
	inventoryWorkflow string
	inventoryOut      string
)

// inventoryCmd runs the engine helper for one workflow and reports its sizes
var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Resolve a workflow's total size, input size and input files via the engine",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig(cmd)
		out := inventoryOut
		if out == "" {
			base := strings.TrimSuffix(filepath.Base(inventoryWorkflow), filepath.Ext(inventoryWorkflow))
			out = filepath.Join(cfg.OutputDir, base+".csv")
		}
		catalog := &sweep.Catalog{Engine: sweep.NewJavaEngine(cfg.Engine), InputsDir: filepath.Dir(out)}
		name := strings.TrimSuffix(filepath.Base(out), ".csv")
		wf, err := catalog.Resolve(cmd.Context(), sweep.WorkflowSource{Name: name, Path: inventoryWorkflow})
		if err != nil {
			logrus.Fatalf("Inventory failed: %v", err)
		}
		fmt.Printf("workflow:    %s\n", wf.Path)
		fmt.Printf("total size:  %d\n", wf.TotalSize)
		fmt.Printf("input size:  %d\n", wf.InputSize)
		fmt.Printf("input files: %d\n", len(wf.Files))
		for _, f := range wf.Files {
			fmt.Printf("  %s,%d\n", f.Name, f.Size)
		}
	},
}

func init() {
	inventoryCmd.Flags().StringVar(&inventoryWorkflow, "workflow", "", "Path to the workflow description (DAX)")
	inventoryCmd.Flags().StringVar(&inventoryOut, "out", "", "Inventory CSV to write (default <output-dir>/<workflow>.csv)")
	_ = inventoryCmd.MarkFlagRequired("workflow")

	rootCmd.AddCommand(inventoryCmd)
}
