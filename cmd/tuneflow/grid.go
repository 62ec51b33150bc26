package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/dataset"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"

	_ "github.com/YuminosukeSato/tuneflow/sklearn/ensemble"
	_ "github.com/YuminosukeSato/tuneflow/sklearn/linear_model"
	_ "github.com/YuminosukeSato/tuneflow/sklearn/svm"
)

func newGridCmd() *cobra.Command {
	var (
		family     string
		tuneLength int
		dataPath   string
		label      string
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the default grid of a model family",
		Long: `Grid prints every configuration of a family's default grid in
enumeration order. Data-dependent grids (svmRadial) are derived from --data,
or from a synthetic dataset when no file is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fam, err := model.Lookup(family)
			if err != nil {
				cmd.PrintErrln("registered families:", model.Names())
				return err
			}
			var ds *dataset.Dataset
			if dataPath != "" {
				f, err := os.Open(dataPath)
				if err != nil {
					return err
				}
				defer f.Close()
				ds, err = dataset.ReadCSV(f, label, dataset.ReadOptions{})
				if err != nil {
					return err
				}
			} else if ds, err = dataset.Synthetic(200, 0.3, seed); err != nil {
				return err
			}

			grid := fam.DefaultGrid(ds.Design(), ds.Codes(), tuneLength, seed)
			for i, cfg := range grid.Configs() {
				cmd.Printf("%3d  %s\n", i+1, cfg)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&family, "family", "f", "gbm", "model family")
	cmd.Flags().IntVarP(&tuneLength, "tune-length", "l", ms.DefaultTuneLength, "values per tuned parameter")
	cmd.Flags().StringVar(&dataPath, "data", "", "CSV file for data-dependent grids")
	cmd.Flags().StringVar(&label, "label", "Class", "label column of --data")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for data-dependent grids")
	return cmd
}
