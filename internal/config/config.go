package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/mapscan/internal/filelock"
	"gopkg.in/yaml.v3"
)

// Color modes accepted by the color setting.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents mapscan configuration options
type Config struct {
	// Workers is the number of scan goroutines (0 = one per CPU)
	Workers int `yaml:"workers"`

	// RulesDir is used when the scan command is given only a scan directory
	RulesDir string `yaml:"rules_dir,omitempty"`

	// RuleExtensions selects which files in the rules directory are compiled
	RuleExtensions []string `yaml:"rule_extensions"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is where per-run log files are written (empty = no file log)
	LogDir string `yaml:"log_dir"`

	// Color controls ANSI output: auto, always or never
	Color string `yaml:"color"`

	// Quiet suppresses match lines; the summary is still printed
	Quiet bool `yaml:"quiet"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Workers:        0, // NumCPU
		RuleExtensions: []string{".yar", ".yara"},
		LogLevel:       "info",
		LogDir:         "",
		Color:          ColorAuto,
		Quiet:          false,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Keys present in the file win even when they hold zero values
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, ok := rawMap["workers"]; ok {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.RulesDir != "" {
		cfg.RulesDir = fileCfg.RulesDir
	}
	if _, ok := rawMap["rule_extensions"]; ok {
		cfg.RuleExtensions = fileCfg.RuleExtensions
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if _, ok := rawMap["log_dir"]; ok {
		cfg.LogDir = fileCfg.LogDir
	}
	if fileCfg.Color != "" {
		cfg.Color = fileCfg.Color
	}
	if _, ok := rawMap["quiet"]; ok {
		cfg.Quiet = fileCfg.Quiet
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .mapscan/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, HomeDirName, ConfigFileName))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(workers *int, logLevel *string, logDir *string, color *string, quiet *bool) {
	if workers != nil {
		c.Workers = *workers
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if color != nil {
		c.Color = *color
	}
	if quiet != nil {
		c.Quiet = *quiet
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color %q, must be one of: auto, always, never", c.Color)
	}

	if len(c.RuleExtensions) == 0 {
		return fmt.Errorf("rule_extensions cannot be empty")
	}
	for _, ext := range c.RuleExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("invalid rule extension %q, must start with '.'", ext)
		}
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path atomically while holding
// "<path>.lock", so concurrent writers never leave a torn file.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := filelock.LockAndWrite(path, data); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
