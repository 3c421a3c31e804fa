package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkoval/basbridge/errors"
)

type Config struct {
	IPCDir          string `yaml:"ipc_dir"`
	PollIntervalMS  int    `yaml:"poll_interval_ms"`
	CallTimeoutS    int    `yaml:"call_timeout_s"`
	ExecuteTimeoutS int    `yaml:"execute_timeout_s"`
	PingTimeoutS    int    `yaml:"ping_timeout_s"`
	ClaudePath      string `yaml:"claude_path"`
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence. A missing
// file is not an error; everything has a default.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".basbridge", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".basbridge", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, so project-level
	// config replaces user-level field by field.
	return yaml.Unmarshal(data, cfg)
}

// PollInterval returns the configured poll interval, or zero when unset so
// the channel's default applies.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// CallTimeout returns the configured simple-command timeout, or zero.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutS) * time.Second
}

// ExecuteTimeout returns the configured executed-action timeout, or zero.
func (c *Config) ExecuteTimeout() time.Duration {
	return time.Duration(c.ExecuteTimeoutS) * time.Second
}

// PingTimeout returns the configured liveness probe timeout, or zero.
func (c *Config) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutS) * time.Second
}
