package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/tweeteater/internal/corpus"
	"github.com/cognicore/tweeteater/pkg/tweeteater/config"
	"github.com/cognicore/tweeteater/pkg/tweeteater/loader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand and override the config file.
type globalFlags struct {
	configPath  string
	logLevel    string
	extension   string
	inputDir    string
	onMalformed string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "tweeteater",
		Short:         "Extract posts and engagements from JSON-lines tweet archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML run configuration (env TWEETEATER_CONFIG_PATH)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.extension, "ext", "", "input file extension (default .jsonl)")
	root.PersistentFlags().StringVar(&g.inputDir, "input", "", "input directory, used when no paths are given")
	root.PersistentFlags().StringVar(&g.onMalformed, "on-malformed", "", "malformed line policy: fail|skip")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newTypesCmd(g))
	root.AddCommand(newAttributesCmd(g))
	root.AddCommand(newEngagementsCmd(g))
	root.AddCommand(newRunsCmd(g))

	return root
}

// env is what a subcommand needs once flags and config are merged.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	loader *loader.Loader
}

// setup loads the config, applies flag overrides through apply, validates
// the result and builds the logger and loader.
func (g *globalFlags) setup(cmd *cobra.Command, apply func(*config.Config)) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("ext") {
		cfg.Input.Extension = g.extension
	}
	if flags.Changed("input") {
		cfg.Input.Directory = g.inputDir
	}
	if flags.Changed("on-malformed") {
		cfg.Loader.OnMalformed = g.onMalformed
	}
	if apply != nil {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	l := loader.New(loader.Options{
		Policy:   policy,
		Progress: progressFor(cmd.ErrOrStderr(), logger),
		Logger:   logger,
	})

	return &env{cfg: cfg, logger: logger, loader: l}, nil
}

// files resolves the positional arguments, falling back to the configured
// input directory.
func (e *env) files(args []string) ([]string, error) {
	if len(args) == 0 {
		if e.cfg.Input.Directory == "" {
			return nil, errors.New("no input: pass files or directories, or set input.directory")
		}
		args = []string{e.cfg.Input.Directory}
	}
	files, err := corpus.Resolve(args, e.cfg.Input.Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		e.logger.Warn("no input files found", "paths", args, "extension", e.cfg.Input.Extension)
	}
	return files, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
