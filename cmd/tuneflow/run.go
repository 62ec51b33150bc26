package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tuneflow/config"
	"github.com/YuminosukeSato/tuneflow/pipeline"
	"github.com/YuminosukeSato/tuneflow/pkg/log"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		outputDir  string
		pretty     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment file",
		Long: `Run loads the experiment file, applies .env and TUNEFLOW_* overrides,
trains every configured model and writes plots, the report and the result
store into the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}
			log.SetOutput(os.Stderr, pretty)
			if err := log.SetupLogger(cfg.LogLevel); err != nil {
				return err
			}

			ds, err := pipeline.LoadData(cfg)
			if err != nil {
				return err
			}
			res, err := pipeline.Run(cmd.Context(), cfg, ds)
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "experiment file (default: built-in synthetic experiment)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().BoolVar(&pretty, "pretty-logs", false, "human readable logs instead of JSON lines")
	return cmd
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n\n", res.RunID)
	fmt.Fprintln(w, "model\tselected\tresampled\ttest accuracy\ttest AUC")
	for _, m := range res.Models {
		tr := m.Fitted.Results()
		best := tr.Rows[tr.Best]
		fmt.Fprintf(w, "%s\t%s\t%s=%.4f\t%.4f\t%.4f\n",
			m.Name, best.Config, tr.Metric, best.Means[tr.Metric], m.Confusion.Accuracy(), m.ROC.AUC)
	}
	if len(res.Comparisons) > 0 {
		fmt.Fprintln(w, "\npair\tmetric\tmean diff\tadjusted p")
		for _, c := range res.Comparisons {
			for _, d := range c.Differences {
				fmt.Fprintf(w, "%s - %s\t%s\t%.4f\t%.4g\n", c.A, c.B, d.Metric, d.MeanDiff, d.AdjustedPValue)
			}
		}
	}
	w.Flush()
	for _, f := range res.Files {
		cmd.Println("wrote", f)
	}
}
