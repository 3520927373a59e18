// Command climdex computes climate indices from the command line: a job
// request JSON goes in, result JSON comes out, with the same engine and wire
// format the Kafka service uses. Custom counting indices can be added from a
// YAML definitions file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var definitionsPath string

	root := &cobra.Command{
		Use:           "climdex",
		Short:         "Compute climate indices from time series data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&definitionsPath, "definitions", "", "YAML file with custom index definitions")

	root.AddCommand(newListCmd(&definitionsPath))
	root.AddCommand(newComputeCmd(&definitionsPath))

	return root
}
