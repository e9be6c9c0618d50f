package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/tweeteater/pkg/tweeteater/attributes"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/loader"
)

// Output formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Config defines a tweeteater run.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Select SelectConfig `yaml:"select"`
	Loader LoaderConfig `yaml:"loader"`
	Log    LogConfig    `yaml:"log"`
}

type InputConfig struct {
	Directory string `yaml:"directory"`
	Extension string `yaml:"extension"`
}

type OutputConfig struct {
	Directory   string `yaml:"directory"`
	Format      string `yaml:"format"`
	SQLitePath  string `yaml:"sqlite_path"`
	MetricsFile string `yaml:"metrics_file"`
}

type SelectConfig struct {
	Types       []string `yaml:"types"`
	Attributes  []string `yaml:"attributes"`
	ScreenNames string   `yaml:"screen_names"`
	StripHTML   []string `yaml:"strip_html"`
}

type LoaderConfig struct {
	OnMalformed string `yaml:"on_malformed"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Input: InputConfig{
			Extension: ".jsonl",
		},
		Output: OutputConfig{
			Directory: "output",
			Format:    FormatCSV,
		},
		Select: SelectConfig{
			Attributes: append([]string(nil), attributes.Defaults...),
		},
		Loader: LoaderConfig{
			OnMalformed: "fail",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TWEETEATER_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dir := os.Getenv("TWEETEATER_INPUT_DIR"); dir != "" {
		cfg.Input.Directory = dir
	}
	if dir := os.Getenv("TWEETEATER_OUTPUT_DIR"); dir != "" {
		cfg.Output.Directory = dir
	}
	if format := os.Getenv("TWEETEATER_OUTPUT_FORMAT"); format != "" {
		cfg.Output.Format = format
	}
	if level := os.Getenv("TWEETEATER_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values no run can use.
func (c Config) Validate() error {
	if c.Input.Extension == "" {
		return fmt.Errorf("%w: input.extension is required", internalerr.ErrInvalidConfig)
	}
	switch c.Output.Format {
	case FormatCSV:
		if c.Output.Directory == "" {
			return fmt.Errorf("%w: output.directory is required for csv output", internalerr.ErrInvalidConfig)
		}
	case FormatSQLite:
		if c.SQLitePath() == "" {
			return fmt.Errorf("%w: output.sqlite_path is required for sqlite output", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown output.format %q", internalerr.ErrInvalidConfig, c.Output.Format)
	}
	if _, err := c.Labels(nil); err != nil {
		return fmt.Errorf("%w: select.types: %w", internalerr.ErrInvalidConfig, err)
	}
	if _, err := c.Paths(); err != nil {
		return fmt.Errorf("%w: select.attributes: %w", internalerr.ErrInvalidConfig, err)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", internalerr.ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// Labels parses select.types. When none are configured it returns def,
// which lets each command keep its own default.
func (c Config) Labels(def classify.LabelSet) (classify.LabelSet, error) {
	if len(c.Select.Types) == 0 {
		return def, nil
	}
	return classify.ParseLabels(c.Select.Types)
}

// Paths parses select.attributes, falling back to the defaults.
func (c Config) Paths() (attributes.Paths, error) {
	if len(c.Select.Attributes) == 0 {
		return attributes.ParsePaths(attributes.Defaults)
	}
	return attributes.ParsePaths(c.Select.Attributes)
}

// Policy parses loader.on_malformed.
func (c Config) Policy() (loader.ErrorPolicy, error) {
	return loader.ParsePolicy(c.Loader.OnMalformed)
}

// SQLitePath returns the database file for sqlite output, defaulting to
// tweets.db inside the output directory.
func (c Config) SQLitePath() string {
	if c.Output.SQLitePath != "" {
		return c.Output.SQLitePath
	}
	if c.Output.Directory == "" {
		return ""
	}
	return filepath.Join(c.Output.Directory, "tweets.db")
}
