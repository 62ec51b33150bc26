package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tuneflow/report/store"
)

func newRunsCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs in a result store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := store.Open(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer s.Close()
			runs, err := s.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("no runs")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "id\tname\tcreated\tresampling\tsummary\tseed\tmodels")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %dx%d\t%s\t%d\t%d\n",
					r.ID, r.Name, r.CreatedAt.Local().Format(time.DateTime), r.Method, r.Number, r.Repeats, r.Summary, r.Seed, r.Models)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dsn, "store", "tuneflow-out/runs.db", "SQLite result store")
	return cmd
}
