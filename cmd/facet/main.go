// Command facet is the headless interface to a design file: evaluate
// networks to scenes, validate interfaces, and query or edit networks in the
// text format.
package main

import (
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})

	root := &cobra.Command{
		Use:          "facet",
		Short:        "facet evaluates and edits parametric node-network designs",
		Long:         "Facet builds geometry from networks of typed nodes. It loads a JSON design file, validates subnetwork interfaces, evaluates networks into meshes or point clouds, and exposes a text format for querying and editing.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(charmlog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newEvalCmd(logger))
	root.AddCommand(newValidateCmd(logger))
	root.AddCommand(newQueryCmd(logger))
	root.AddCommand(newEditCmd(logger))
	return root
}
