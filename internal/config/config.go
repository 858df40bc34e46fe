package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the herd server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db_path"`    // SQLite database path (default ~/.herd/herd.db, ":memory:" for testing)
	Workers   int    `yaml:"workers"`    // Executor worker pool size (default 4)
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   4,
	}
}

// LoadServerConfig reads a YAML config file over the given defaults.
// Fields absent from the file keep their default values.
func LoadServerConfig(path string, defaults ServerConfig) (ServerConfig, error) {
	cfg := defaults
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ClientConfig holds configuration for the herd CLI client.
type ClientConfig struct {
	ServerURL string `yaml:"server_url"` // Base URL of the herd server
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultClientConfig returns sensible defaults, honoring HERD_SERVER.
func DefaultClientConfig() ClientConfig {
	url := os.Getenv("HERD_SERVER")
	if url == "" {
		url = "http://localhost:8080"
	}
	return ClientConfig{
		ServerURL: url,
		LogLevel:  "info",
		LogFormat: "text",
	}
}
