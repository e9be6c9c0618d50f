package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/tweeteater/pkg/tweeteater"
	"github.com/cognicore/tweeteater/pkg/tweeteater/config"
)

func newRunsCmd(g *globalFlags) *cobra.Command {
	var (
		outputDir string
		format    string
		dbPath    string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs recorded in the output store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := g.setup(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("output") {
					cfg.Output.Directory = outputDir
				}
				if cmd.Flags().Changed("format") {
					cfg.Output.Format = format
				}
				if cmd.Flags().Changed("db") {
					cfg.Output.SQLitePath = dbPath
				}
			})
			if err != nil {
				return err
			}

			st, err := openStore(ctx, env.cfg)
			if err != nil {
				return err
			}
			eater := tweeteater.New(tweeteater.Options{Store: st, Logger: env.logger})
			defer eater.Close()

			runs, err := eater.Runs(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tELAPSED\tFILES\tRECORDS\tPOSTS\tENGAGEMENTS\tSKIPPED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
					r.Files, r.Records, r.Posts, r.Engagements, r.Skipped)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default output)")
	cmd.Flags().StringVar(&format, "format", "", "output format: csv|sqlite")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (default <output>/tweets.db)")
	return cmd
}
