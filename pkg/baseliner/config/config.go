package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/baseliner/pkg/baseliner/history"
	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// EnvPrefix prefixes environment variable overrides (e.g. BASELINER_SUFFIX).
const EnvPrefix = "BASELINER"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// GlobConfig selects the pattern matcher.
type GlobConfig struct {
	Dialect   string `mapstructure:"dialect"`
	CacheSize int    `mapstructure:"cache_size"`
}

// OutputConfig configures reports and regenerated baselines.
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	Template string `mapstructure:"template"`
	// Tag is inserted before the extension of regenerated baseline names.
	Tag string `mapstructure:"tag"`
	// Dir receives regenerated baselines; empty writes next to the originals.
	Dir string `mapstructure:"dir"`
}

// HistoryConfig configures the check history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Baseline    string        `mapstructure:"baseline"`
	Scope       string        `mapstructure:"scope"`
	Suffix      string        `mapstructure:"suffix"`
	SuffixAware bool          `mapstructure:"suffix_aware"`
	SkipDirs    []string      `mapstructure:"skip_dirs"`
	Workers     int           `mapstructure:"workers"`
	Glob        GlobConfig    `mapstructure:"glob"`
	Output      OutputConfig  `mapstructure:"output"`
	History     HistoryConfig `mapstructure:"history"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("baseline", DefaultBaseline)
	v.SetDefault("scope", "")
	v.SetDefault("suffix", "")
	v.SetDefault("suffix_aware", true)
	v.SetDefault("skip_dirs", DefaultSkipDirs)
	v.SetDefault("workers", DefaultWorkers)

	v.SetDefault("glob.dialect", DefaultGlobDialect)
	v.SetDefault("glob.cache_size", DefaultGlobCacheSize)

	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.template", "")
	v.SetDefault("output.tag", "")
	v.SetDefault("output.dir", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means use DefaultHistoryPath
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// Prepare sets the config search paths, environment binding and defaults
// on v. An explicit file overrides the search paths.
func Prepare(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return nil
}

// Read reads the config file into v. A missing file in the search paths is
// not an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Decode unmarshals v into a Config and expands ~ in paths.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.Baseline, &cfg.Output.Dir, &cfg.History.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}
	return &cfg, nil
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/baseliner/config.yaml
//   - $HOME/.config/baseliner/config.yaml
//
// Environment variables are prefixed with BASELINER_ (e.g., BASELINER_SUFFIX).
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. Empty searches the
// default locations.
func LoadFile(file string) (*Config, error) {
	v := viper.New()
	if err := Prepare(v, file); err != nil {
		return nil, err
	}
	if err := Read(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

// LoggingOptions converts the logging section to logging.Config. console
// enables stderr output at that level; empty disables it.
func (c *Config) LoggingOptions(console string) (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("parsing logging.rotation.max_size: %w", err)
		}
		rotation.MaxSize = int64(size)
	}
	rotation.MaxAge = c.Logging.Rotation.MaxAge
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	rotation.Daily = c.Logging.Rotation.Daily

	return logging.Config{
		Level:          c.Logging.Level,
		Path:           c.Logging.Path,
		UseDefaultPath: true,
		Rotation:       rotation,
		Components:     c.Logging.Components,
		ConsoleLevel:   console,
	}, nil
}

// HistoryPath returns the configured history path or the XDG default.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return DefaultHistoryPath()
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "baseliner"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "baseliner"), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Baseliner Configuration

# Baseline file loaded by check and list
baseline: %s

# Regular expression restricting loaded entries by pattern (empty keeps all)
scope: ""

# Suffix to check against (empty checks without one)
suffix: ""

# Honor "|suffix" qualifiers; false makes every entry apply to every suffix
suffix_aware: true

# Directories never descended into
skip_dirs:
  - .git
  - .hg
  - .svn

# Directory walker workers (0 = auto)
workers: %d

# Pattern matching
glob:
  # gobwas or doublestar
  dialect: %s
  cache_size: %d

# Reports and regenerated baselines
output:
  # pretty, plain, json, jsonl, yaml, csv, tsv, markdown, paths, null, patterns, template
  format: %s
  template: ""
  # Inserted before the extension of regenerated baselines (Updated<name>.<tag>.txt)
  tag: ""
  # Directory for regenerated baselines (empty writes next to the originals)
  dir: ""

# Check history
history:
  enabled: true
  # Empty means use default: $XDG_DATA_HOME/baseliner/history
  path: ""
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/baseliner/baseliner.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    loader: info
    engine: info
    scanner: info
    watcher: warn
    history: info
`, DefaultBaseline, DefaultWorkers, DefaultGlobDialect, DefaultGlobCacheSize, DefaultFormat, DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DefaultHistoryPath returns the default history database directory.
func DefaultHistoryPath() string {
	return history.DefaultPath()
}
