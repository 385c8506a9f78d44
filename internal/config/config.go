// Package config loads shardex node configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
)

// Config represents the complete shardex configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Cluster ClusterConfig `yaml:"cluster" json:"cluster"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	LogLevel string `yaml:"log_level" json:"log_level"`
	// ShutdownTimeout bounds graceful HTTP shutdown (e.g. "10s").
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	// DataDir holds one bleve index directory per resident index.
	// Defaults to ~/.shardex/data
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// EngineConfig configures the physical index engine.
type EngineConfig struct {
	// DefaultAnalyzer is applied to text fields of new indices (default: standard).
	DefaultAnalyzer string `yaml:"default_analyzer" json:"default_analyzer"`
	// SpaceCacheSize is how many committed generations remember their disk footprint.
	SpaceCacheSize int `yaml:"space_cache_size" json:"space_cache_size"`
}

// ClusterConfig holds node identity for cluster bookkeeping.
type ClusterConfig struct {
	// NodeID names this node. Empty uses the hostname.
	NodeID string `yaml:"node_id" json:"node_id"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			LogLevel:        "info",
			ShutdownTimeout: "10s",
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir(),
		},
		Engine: EngineConfig{
			DefaultAnalyzer: index.DefaultAnalyzer,
			SpaceCacheSize:  index.DefaultSpaceCacheSize,
		},
		Cluster: ClusterConfig{
			NodeID: "",
		},
	}
}

// DefaultDataDir returns ~/.shardex/data, falling back to the temp directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".shardex", "data")
	}
	return filepath.Join(home, ".shardex", "data")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/shardex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/shardex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shardex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "shardex", "config.yaml")
	}
	return filepath.Join(home, ".config", "shardex", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	info, err := os.Stat(GetUserConfigPath())
	return err == nil && !info.IsDir()
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration for a node started in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/shardex/config.yaml)
//  3. Local config (.shardex.yaml in dir)
//  4. Environment variables (SHARDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userCfg, err := loadUserConfig()
	if err != nil {
		return nil, errors.ConfigError("failed to load user config", err)
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, errors.ConfigError("failed to load local config", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	return cfg, nil
}

// loadFromFile merges .shardex.yaml or .shardex.yml from dir, if present.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".shardex.yaml", ".shardex.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		var parsed Config
		if err := readYAML(path, &parsed); err != nil {
			return err
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.ShutdownTimeout != "" {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Paths
	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}

	// Engine
	if other.Engine.DefaultAnalyzer != "" {
		c.Engine.DefaultAnalyzer = other.Engine.DefaultAnalyzer
	}
	if other.Engine.SpaceCacheSize != 0 {
		c.Engine.SpaceCacheSize = other.Engine.SpaceCacheSize
	}

	// Cluster
	if other.Cluster.NodeID != "" {
		c.Cluster.NodeID = other.Cluster.NodeID
	}
}

// applyEnvOverrides applies SHARDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHARDEX_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SHARDEX_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("SHARDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SHARDEX_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("SHARDEX_NODE_ID"); v != "" {
		c.Cluster.NodeID = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout is not a duration: %s", c.Server.ShutdownTimeout)
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}

	if c.Engine.SpaceCacheSize < 0 {
		return fmt.Errorf("engine.space_cache_size must be non-negative, got %d", c.Engine.SpaceCacheSize)
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// NodeID returns the configured node id, or the hostname.
func (c *Config) NodeID() string {
	if c.Cluster.NodeID != "" {
		return c.Cluster.NodeID
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "shardex"
}

// IndexSettings returns the engine settings applied to attached indices.
func (c *Config) IndexSettings() index.Settings {
	return index.Settings{
		SpaceCacheSize:  c.Engine.SpaceCacheSize,
		DefaultAnalyzer: c.Engine.DefaultAnalyzer,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
