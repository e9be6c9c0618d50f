package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cognicore/tweeteater/pkg/tweeteater"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/config"
	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/pipeline"
	"github.com/cognicore/tweeteater/pkg/tweeteater/stats"
	"github.com/cognicore/tweeteater/pkg/tweeteater/store"
	"github.com/cognicore/tweeteater/pkg/tweeteater/store/csvstore"
	"github.com/cognicore/tweeteater/pkg/tweeteater/store/sqlite"
)

// selectFlags override the select section of the config.
type selectFlags struct {
	types       []string
	attributes  []string
	screenNames string
	stripHTML   []string
}

// registerFilters adds the flags that choose which posts are kept.
func (s *selectFlags) registerFilters(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.types, "types", nil, "tweet types to keep: original,retweet,reply,quote")
	cmd.Flags().StringVar(&s.screenNames, "screen-names", "", "file of author handles to keep (json, yaml, csv or txt)")
}

// registerAttributes adds the flags that shape the attribute columns.
func (s *selectFlags) registerAttributes(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.attributes, "attributes", nil, "dotted attribute paths to extract")
	cmd.Flags().StringSliceVar(&s.stripHTML, "strip-html", nil, "attribute columns rendered as plain text")
}

func (s *selectFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("types") {
		cfg.Select.Types = s.types
	}
	if flags.Changed("screen-names") {
		cfg.Select.ScreenNames = s.screenNames
	}
	if flags.Changed("attributes") {
		cfg.Select.Attributes = s.attributes
	}
	if flags.Changed("strip-html") {
		cfg.Select.StripHTML = s.stripHTML
	}
}

// selection builds the run selection from a validated config.
func selection(cfg config.Config) (tweeteater.Selection, error) {
	keep, err := cfg.Labels(classify.NewLabelSet(classify.Original))
	if err != nil {
		return tweeteater.Selection{}, err
	}
	paths, err := cfg.Paths()
	if err != nil {
		return tweeteater.Selection{}, err
	}
	filter, err := authorFilter(cfg)
	if err != nil {
		return tweeteater.Selection{}, err
	}
	return tweeteater.Selection{
		Keep:      keep,
		Filter:    filter,
		Paths:     paths,
		StripHTML: cfg.Select.StripHTML,
	}, nil
}

func authorFilter(cfg config.Config) (pipeline.Predicate, error) {
	if cfg.Select.ScreenNames == "" {
		return nil, nil
	}
	names, err := config.LoadScreenNames(cfg.Select.ScreenNames)
	if err != nil {
		return nil, err
	}
	return pipeline.AuthorIn(names), nil
}

// openStore opens the configured output sink.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Output.Format {
	case config.FormatSQLite:
		path := cfg.SQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		st, err := sqlite.OpenSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", internalerr.ErrStoreUnavailable, path, err)
		}
		return st, nil
	default:
		st, err := csvstore.Open(cfg.Output.Directory)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
		}
		return st, nil
	}
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		sel       selectFlags
		outputDir string
		format    string
		dbPath    string
		metrics   string
	)

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Extract the post table and its engagement table in two passes",
		Long: `Reads every input file twice. The first pass keeps the selected posts and
projects their attributes; the second collects retweets, quotes, replies and
the counters observed on embedded copies of those posts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := g.setup(cmd, func(cfg *config.Config) {
				sel.apply(cmd, cfg)
				if cmd.Flags().Changed("output") {
					cfg.Output.Directory = outputDir
				}
				if cmd.Flags().Changed("format") {
					cfg.Output.Format = format
				}
				if cmd.Flags().Changed("db") {
					cfg.Output.SQLitePath = dbPath
				}
				if cmd.Flags().Changed("metrics-file") {
					cfg.Output.MetricsFile = metrics
				}
			})
			if err != nil {
				return err
			}

			files, err := env.files(args)
			if err != nil {
				return err
			}
			s, err := selection(env.cfg)
			if err != nil {
				return err
			}

			st, err := openStore(ctx, env.cfg)
			if err != nil {
				return err
			}
			opts := tweeteater.Options{Store: st, Loader: env.loader, Logger: env.logger}
			if env.cfg.Output.MetricsFile != "" {
				opts.Metrics = stats.NewMetrics()
			}
			eater := tweeteater.New(opts)
			defer eater.Close()

			sum, err := eater.Run(ctx, files, s)
			if err != nil {
				return err
			}
			if opts.Metrics != nil {
				if err := opts.Metrics.WriteTextfile(env.cfg.Output.MetricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			printSummary(cmd, env.cfg, sum)
			return nil
		},
	}

	sel.registerFilters(cmd)
	sel.registerAttributes(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default output)")
	cmd.Flags().StringVar(&format, "format", "", "output format: csv|sqlite")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (default <output>/tweets.db)")
	cmd.Flags().StringVar(&metrics, "metrics-file", "", "write run gauges in Prometheus text format to this file")
	return cmd
}

func printSummary(cmd *cobra.Command, cfg config.Config, sum tweeteater.Summary) {
	out := cmd.OutOrStdout()
	heading := color.New(color.FgGreen, color.Bold)
	heading.Fprintf(out, "run %s\n", sum.RunID)
	fmt.Fprintf(out, "  files:       %d (%d records, %d skipped)\n", sum.Files, sum.Records, sum.Skipped)
	fmt.Fprintf(out, "  posts:       %d\n", sum.Posts)
	fmt.Fprintf(out, "  engagements: %d\n", sum.Engagements)
	fmt.Fprintf(out, "  duplicates:  %d\n", sum.Duplicates)

	if len(sum.Stats.Labels) > 0 {
		var parts []string
		for _, name := range sortedKeys(sum.Stats.Labels) {
			parts = append(parts, fmt.Sprintf("%s=%d", name, sum.Stats.Labels[name]))
		}
		fmt.Fprintf(out, "  labels:      %s\n", strings.Join(parts, " "))
	}
	if top := sum.Stats.TopTargets(5); len(top) > 0 {
		fmt.Fprintln(out, "  most engaged:")
		for _, tc := range top {
			fmt.Fprintf(out, "    %s  %d\n", tc.ID, tc.Actions)
		}
	}

	dest := cfg.Output.Directory
	if cfg.Output.Format == config.FormatSQLite {
		dest = cfg.SQLitePath()
	}
	fmt.Fprintf(out, "written to %s\n", color.CyanString(dest))
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
