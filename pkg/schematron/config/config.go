// Package config loads the YAML document spec §6 "Configuration"
// describes: absolute paths for the compendium/document roots plus
// database credentials (key names only, out of scope beyond that).
// Grounded on the teacher's own pkg/core/init.go, which reads its
// config file with os.ReadFile and yaml.Unmarshal directly and
// reserves viper for CLI flag/env binding in main.go, not for
// decoding the config struct itself.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds the credentials some front-ends use to resolve
// schema names. The database itself is out of scope; only the key
// names this module's config surface promises are carried here.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Config is the top-level configuration document.
type Config struct {
	XSDRoot  string         `yaml:"xsd_root"`
	XMLRoot  string         `yaml:"xml_root"`
	Database DatabaseConfig `yaml:"db"`
}

// Load reads path (YAML) into a Config, the same way the teacher's
// migrateLegacyConfig reads its own config file: os.ReadFile followed
// by yaml.Unmarshal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal %s: %w", path, err)
	}
	if cfg.XSDRoot == "" {
		return nil, fmt.Errorf("config: xsd_root is required")
	}
	if cfg.XMLRoot == "" {
		return nil, fmt.Errorf("config: xml_root is required")
	}
	return &cfg, nil
}

// Marshal renders cfg back to YAML, used by the CLI's "init" command
// to write a starter config file.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
