package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the conventional tool config file name.
const DefaultPath = ".sqlshield.yaml"

// Config is the tool configuration. Every field has a usable zero default;
// the file is optional.
type Config struct {
	MigrationsDir string   `yaml:"migrations_dir"`
	AutoApprove   bool     `yaml:"auto_approve"`
	Disabled      []string `yaml:"disabled"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{MigrationsDir: "migrations"}
}

// Load reads the config file at path. A missing file is not an error and
// yields the defaults; a malformed file is.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file: %v", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config YAML: %v", err)
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	return cfg, nil
}
