package main

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/config"
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/pipeline"
	"github.com/cognicore/tweeteater/pkg/tweeteater/table"
)

// rawEngagementHeader is the engagement header without the joined columns.
var rawEngagementHeader = table.EngagementHeader[:6]

func newTypesCmd(g *globalFlags) *cobra.Command {
	var sel selectFlags

	cmd := &cobra.Command{
		Use:   "types [paths...]",
		Short: "List the id and tweet types of every kept record as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.setup(cmd, func(cfg *config.Config) { sel.apply(cmd, cfg) })
			if err != nil {
				return err
			}
			files, err := env.files(args)
			if err != nil {
				return err
			}
			keep, err := env.cfg.Labels(classify.All())
			if err != nil {
				return err
			}
			filter, err := authorFilter(env.cfg)
			if err != nil {
				return err
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write([]string{table.IDColumn, table.TypesColumn}); err != nil {
				return err
			}
			q := pipeline.TypeQuery{Keep: keep, Filter: filter}
			for row, err := range pipeline.New(env.loader).ListTypes(files, q) {
				if err != nil {
					return err
				}
				if err := w.Write([]string{string(row.ID), row.Labels.String()}); err != nil {
					return err
				}
			}
			return flush(w)
		},
	}

	sel.registerFilters(cmd)
	return cmd
}

func newAttributesCmd(g *globalFlags) *cobra.Command {
	var (
		sel     selectFlags
		idsPath string
	)

	cmd := &cobra.Command{
		Use:   "attributes --ids FILE [paths...]",
		Short: "Project attributes of the records whose id is listed in FILE as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.setup(cmd, func(cfg *config.Config) { sel.apply(cmd, cfg) })
			if err != nil {
				return err
			}
			files, err := env.files(args)
			if err != nil {
				return err
			}
			ids, err := config.LoadIDs(idsPath)
			if err != nil {
				return err
			}
			paths, err := env.cfg.Paths()
			if err != nil {
				return err
			}

			strip := make(map[int]bool)
			for _, name := range env.cfg.Select.StripHTML {
				for i, p := range paths {
					if p.Name() == name {
						strip[i] = true
					}
				}
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write(append([]string{table.IDColumn}, paths.Names()...)); err != nil {
				return err
			}
			for row, err := range pipeline.New(env.loader).ExtractAttributes(files, ids, paths) {
				if err != nil {
					return err
				}
				cells := make([]string, 0, 1+len(row.Values))
				cells = append(cells, string(row.ID))
				for i, v := range row.Values {
					if strip[i] {
						cells = append(cells, table.HTMLText(v.String()))
						continue
					}
					cells = append(cells, v.String())
				}
				if err := w.Write(cells); err != nil {
					return err
				}
			}
			return flush(w)
		},
	}

	sel.registerAttributes(cmd)
	cmd.Flags().StringVar(&idsPath, "ids", "", "file of tracked ids (json, yaml, csv or txt)")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func newEngagementsCmd(g *globalFlags) *cobra.Command {
	var idsPath string

	cmd := &cobra.Command{
		Use:   "engagements --ids FILE [paths...]",
		Short: "Extract engagements towards the ids listed in FILE as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.setup(cmd, nil)
			if err != nil {
				return err
			}
			files, err := env.files(args)
			if err != nil {
				return err
			}
			ids, err := config.LoadIDs(idsPath)
			if err != nil {
				return err
			}
			return writeEngagements(cmd.OutOrStdout(), pipeline.New(env.loader), files, ids)
		},
	}

	cmd.Flags().StringVar(&idsPath, "ids", "", "file of tracked ids (json, yaml, csv or txt)")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func writeEngagements(out io.Writer, p *pipeline.Pipeline, files []string, ids engagement.IDSet) error {
	w := csv.NewWriter(out)
	if err := w.Write(rawEngagementHeader); err != nil {
		return err
	}
	for t, err := range p.ExtractEngagements(files, ids) {
		if err != nil {
			return err
		}
		cells := []string{
			t.CreatedAt.String(),
			string(t.ID),
			t.Handle.String(),
			string(t.TargetID),
			string(t.Kind),
			t.Count.String(),
		}
		if err := w.Write(cells); err != nil {
			return err
		}
	}
	return flush(w)
}

func flush(w *csv.Writer) error {
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
