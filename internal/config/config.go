// Package config provides configuration management for docpipe.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (DOCPIPE_ prefix)
//  3. Config file (.docpipe.yaml)
package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Pipeline defaults.
const (
	DefaultIntervalSeconds = 2.0
	DefaultInterpreter     = "python3"
	DefaultScriptExt       = ".py"
)

// Config represents the global configuration for docpipe.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// Interval is the poll period in seconds.
	Interval float64 `mapstructure:"interval" json:"interval"`

	// NoHTML skips the HTML→PDF conversion stage.
	NoHTML bool `mapstructure:"no-html" json:"noHtml"`

	// RepoRoot is the directory the script layout is resolved against.
	// Empty means two levels above the executable's directory.
	RepoRoot string `mapstructure:"repo-root" json:"repoRoot"`

	// Interpreter runs each script. Empty executes scripts directly.
	Interpreter string `mapstructure:"interpreter" json:"interpreter"`

	// ScriptExt is the extension scripts are discovered by.
	ScriptExt string `mapstructure:"script-ext" json:"scriptExt"`

	// EnvFile is an optional dotenv file passed to child processes.
	EnvFile string `mapstructure:"env-file" json:"envFile"`

	// Coalesce runs the pipeline once per tick even when several targets
	// changed.
	Coalesce bool `mapstructure:"coalesce" json:"coalesce"`

	// ShowDiff prints a unified diff of changed text targets.
	ShowDiff bool `mapstructure:"show-diff" json:"showDiff"`

	// Schedule is an optional cron expression for extra runs while watching.
	Schedule string `mapstructure:"schedule" json:"schedule"`

	// AutoDetect re-resolves scripts when the script directories change.
	AutoDetect bool `mapstructure:"auto-detect" json:"autoDetect"`

	// RequiredVersion is a semver constraint the binary must satisfy.
	RequiredVersion string `mapstructure:"required-version" json:"requiredVersion"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(): not read from config itself.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:    LogLevelInfo,
		LogFormat:   LogFormatText,
		Interval:    DefaultIntervalSeconds,
		Interpreter: DefaultInterpreter,
		ScriptExt:   DefaultScriptExt,
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	if c.ScriptExt != "" && !strings.HasPrefix(c.ScriptExt, ".") {
		return fmt.Errorf("invalid script extension %q: must start with a dot", c.ScriptExt)
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// PollInterval converts Interval to a duration. Non-positive values fall
// back to the default.
func (c *Config) PollInterval() time.Duration {
	return secondsToDuration(c.Interval)
}

// ResolveRepoRoot returns RepoRoot as an absolute path, defaulting to two
// directories above the running executable.
func (c *Config) ResolveRepoRoot() (string, error) {
	if c.RepoRoot != "" {
		return filepath.Abs(c.RepoRoot)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}

	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}

	return filepath.Clean(filepath.Join(filepath.Dir(exe), "..", "..")), nil
}

// ParseInterval parses a poll interval typed by a user, either seconds
// ("2.5") or a Go duration ("1500ms"). Anything unparsable or non-positive
// yields the default.
func ParseInterval(s string) time.Duration {
	s = strings.TrimSpace(s)

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return secondsToDuration(secs)
	}

	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}

	return secondsToDuration(DefaultIntervalSeconds)
}

// secondsToDuration falls back to the default for NaN, infinite and
// non-positive values and for anything that does not fit a time.Duration
// of at least one nanosecond.
func secondsToDuration(secs float64) time.Duration {
	ns := secs * float64(time.Second)
	if math.IsNaN(ns) || ns < 1 || ns >= math.MaxInt64 {
		ns = DefaultIntervalSeconds * float64(time.Second)
	}

	return time.Duration(ns)
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Store the resolved config file path so downstream code can locate it.
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log-level", LogLevelInfo)
	v.SetDefault("log-format", LogFormatText)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("interval", DefaultIntervalSeconds)
	v.SetDefault("no-html", false)
	v.SetDefault("repo-root", "")
	v.SetDefault("interpreter", DefaultInterpreter)
	v.SetDefault("script-ext", DefaultScriptExt)
	v.SetDefault("env-file", "")
	v.SetDefault("coalesce", false)
	v.SetDefault("show-diff", false)
	v.SetDefault("schedule", "")
	v.SetDefault("auto-detect", false)
	v.SetDefault("required-version", "")
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("DOCPIPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	// Auto-discovery mode.
	v.SetConfigName(".docpipe")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "docpipe"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		// Found a file but it was malformed.
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	// Bind the current command's own flags.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	// Walk up to root and bind all persistent flags at each level.
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
