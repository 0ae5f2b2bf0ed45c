package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Backend kinds accepted in [BackendConfig.Kind].
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Database DatabaseConfig `toml:"database"`
	Remote   RemoteConfig   `toml:"remote"`
	Session  SessionConfig  `toml:"session"`
	Server   ServerConfig   `toml:"server"`
	Search   SearchConfig   `toml:"search"`
}

// BackendConfig selects which gateway implementation backs the dashboard.
type BackendConfig struct {
	Kind string `toml:"kind"` // "local" or "remote"
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	BcryptCost   int    `toml:"bcrypt_cost"`
}

// RemoteConfig contains settings for the hosted document & account API.
//
// ConfigURL points at the JSON document supplying projectId and endPoint; Endpoint and ProjectID
// are only used when ConfigURL is empty.
type RemoteConfig struct {
	ConfigURL         string  `toml:"config_url"`
	Endpoint          string  `toml:"endpoint"`
	ProjectID         string  `toml:"project_id"`
	DatabaseID        string  `toml:"database_id"`
	ClientID          string  `toml:"client_id"`
	ClientSecret      string  `toml:"client_secret"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (c RemoteConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionConfig controls where the CLI keeps its session token between invocations.
type SessionConfig struct {
	Path string `toml:"path"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SearchConfig selects the search provider ("simulated" or "index").
type SearchConfig struct {
	Provider string `toml:"provider"`
	Limit    int    `toml:"limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendLocal:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the local backend", ErrInvalidConfig)
		}
	case BackendRemote:
		if c.Remote.ConfigURL == "" && c.Remote.Endpoint == "" {
			return fmt.Errorf("%w: remote.config_url or remote.endpoint is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend kind %q", ErrInvalidConfig, c.Backend.Kind)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
