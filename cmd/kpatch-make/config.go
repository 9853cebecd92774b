package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const defaultOutputMode os.FileMode = 0o660

// Config represents the optional kpatch config file ($XDG_CONFIG_HOME/kpatch/config.yaml).
type Config struct {
	BuildID    string `yaml:"build_id"`
	OutputMode string `yaml:"output_mode"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kpatch", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// outputMode parses OutputMode as an octal permission.
func (c Config) outputMode() (os.FileMode, error) {
	if c.OutputMode == "" {
		return defaultOutputMode, nil
	}
	m, err := strconv.ParseUint(c.OutputMode, 8, 32)
	if err != nil || m > 0o777 {
		return 0, fmt.Errorf("config: invalid output_mode %q", c.OutputMode)
	}
	return os.FileMode(m), nil
}

// applyConfig copies config defaults into flags that were not explicitly set.
func applyConfig(c *cli.Command, cfg Config, f *makeFlags) {
	if cfg.BuildID != "" && !c.IsSet("buildid") {
		f.buildID = cfg.BuildID
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		f.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		f.logFormat = cfg.LogFormat
	}
}
