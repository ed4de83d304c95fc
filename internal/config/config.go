package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultListenAddr is used when the config file sets no address.
const DefaultListenAddr = ":8123"

// Config is the server configuration.
type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	Catalog    CatalogConfig `yaml:"catalog"`
}

// CatalogConfig selects the catalog backend: a SQLite database file or a
// declarative schema file loaded into the in-memory catalog. Exactly one
// must be set.
type CatalogConfig struct {
	SQLitePath string `yaml:"sqlite_path,omitempty"`
	SchemaPath string `yaml:"schema_path,omitempty"`
}

// Load reads and validates a server config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the backend selection.
func (c *Config) Validate() error {
	switch {
	case c.Catalog.SQLitePath == "" && c.Catalog.SchemaPath == "":
		return fmt.Errorf("config: catalog needs sqlite_path or schema_path")
	case c.Catalog.SQLitePath != "" && c.Catalog.SchemaPath != "":
		return fmt.Errorf("config: catalog sqlite_path and schema_path are mutually exclusive")
	}
	return nil
}
