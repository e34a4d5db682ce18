// Package config handles configuration loading for taskweave.
// It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for taskweave.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	History   HistoryConfig   `mapstructure:"history"`
}

// AnthropicConfig holds reasoning-engine API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. ${VAR} references are expanded.
	APIKey string `mapstructure:"api_key"`
	// Model is the Claude model name for the reasoning engine.
	Model string `mapstructure:"model"`
	// UseBedrock routes reasoning requests through AWS Bedrock.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the AWS shared-config profile for Bedrock.
	AWSProfile string `mapstructure:"aws_profile"`
}

// ExecutorConfig tunes step execution.
type ExecutorConfig struct {
	// MaxParallel caps concurrent steps within a group.
	MaxParallel int `mapstructure:"max_parallel"`
	// MaxRetries is the retry budget for retryable steps.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// HistoryConfig controls execution-result persistence.
type HistoryConfig struct {
	// Enabled toggles the history store.
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite database path. Empty selects the XDG data dir.
	Path string `mapstructure:"path"`
}

// Load loads configuration with the following precedence (highest to
// lowest): environment variables (ANTHROPIC_API_KEY), project config
// (.taskweave.yaml in the current directory or a parent), user config
// (~/.config/taskweave/config.yaml), built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("TASKWEAVE")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// UserConfigPath returns the path of the user config file.
func UserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// ProjectConfigPath returns the discovered project config, or "".
func ProjectConfigPath() string {
	return findProjectConfig()
}

// HistoryDBPath returns the configured history database path, falling
// back to the XDG data directory.
func (c *Config) HistoryDBPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskweave", "history.db")
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{},
		Executor: ExecutorConfig{
			MaxParallel: 4,
			MaxRetries:  2,
			RetryDelay:  100 * time.Millisecond,
		},
		History: HistoryConfig{Enabled: true},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("executor.max_parallel", 4)
	v.SetDefault("executor.max_retries", 2)
	v.SetDefault("executor.retry_delay", "100ms")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
}

func userConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskweave")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskweave")
	}
	return filepath.Join(home, ".config", "taskweave")
}

// findProjectConfig searches for .taskweave.yaml in the current
// directory and its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".taskweave.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}
