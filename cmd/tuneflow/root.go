package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tuneflow",
		Short: "Tune, evaluate and compare binary classifiers",
		Long: `tuneflow splits a labelled dataset, tunes each configured model family
over a hyperparameter grid with repeated cross-validation or the bootstrap,
evaluates the selected models on the held-out test set and compares their
resampling distributions with paired t-tests.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newGridCmd(), newRunsCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("tuneflow " + version)
		},
	}
}
