package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fedsweep/fedsweep/sweep"
)

// topologiesCmd prints the fixed topologies as YAML
var topologiesCmd = &cobra.Command{
	Use:   "topologies",
	Short: "Print the fixed site topologies",
	Run: func(cmd *cobra.Command, args []string) {
		topologies, err := sweep.StandardTopologies()
		if err != nil {
			logrus.Fatalf("building topologies: %v", err)
		}
		data, err := yaml.Marshal(topologies)
		if err != nil {
			logrus.Fatalf("YAML marshal failed: %v", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}

func init() {
	rootCmd.AddCommand(topologiesCmd)
}
