package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the pespath configuration file (~/.config/pespath/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Output
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	OutputFormat string `yaml:"output_format"`

	// Interp
	Jobs *int64 `yaml:"jobs"`

	// Server
	ServerAddress string `yaml:"server_address"`
	DataDir       string `yaml:"data_dir"`
}

func configPath() string {
	if p := os.Getenv(envPespathConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pespath", "config.yaml")
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyInterpConfig applies config file defaults to interp command variables
// when the corresponding CLI flag was not explicitly set.
func applyInterpConfig(c *cli.Command, cfg Config, format *string, jobs *int64) {
	if cfg.OutputFormat != "" && !c.IsSet("format") {
		*format = cfg.OutputFormat
	}
	if cfg.Jobs != nil && !c.IsSet("jobs") {
		*jobs = *cfg.Jobs
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr, dataDir *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.DataDir != "" && !c.IsSet("data-dir") {
		*dataDir = cfg.DataDir
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
