package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Backend.Kind != BackendLocal {
			t.Errorf("expected backend kind local, got %s", config.Backend.Kind)
		}

		if config.Database.Path != "./musicdash.db" {
			t.Errorf("expected database path ./musicdash.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Search.Provider != "simulated" || config.Search.Limit != 10 {
			t.Errorf("unexpected search defaults: %+v", config.Search)
		}

		if config.Remote.DatabaseID != "music" {
			t.Errorf("expected remote database id music, got %s", config.Remote.DatabaseID)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[backend]
kind = "remote"

[remote]
endpoint = "https://api.example.com"
project_id = "proj"
timeout_seconds = 3

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.Kind != BackendRemote {
			t.Errorf("expected remote backend, got %s", config.Backend.Kind)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Remote.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %s", config.Remote.Timeout())
		}

		if config.Database.Path != "./musicdash.db" {
			t.Errorf("missing values should keep defaults, got database path %s", config.Database.Path)
		}

		if config.Remote.DatabaseID != "music" {
			t.Errorf("missing values should keep defaults, got database id %s", config.Remote.DatabaseID)
		}
	})

	t.Run("LoadConfig errors", func(t *testing.T) {
		dir := t.TempDir()

		if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}

		bad := filepath.Join(dir, "bad.toml")
		if err := os.WriteFile(bad, []byte("[backend\nkind ="), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(bad); err == nil {
			t.Error("expected parse error")
		}

		unknown := filepath.Join(dir, "unknown.toml")
		if err := os.WriteFile(unknown, []byte("[backend]\nkind = \"cloud\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(unknown); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			mutate  func(*Config)
			wantErr bool
		}{
			{name: "local with path", mutate: func(c *Config) {}},
			{name: "local without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
			{
				name: "remote with config url",
				mutate: func(c *Config) {
					c.Backend.Kind = BackendRemote
				},
			},
			{
				name: "remote without location",
				mutate: func(c *Config) {
					c.Backend.Kind = BackendRemote
					c.Remote.ConfigURL, c.Remote.Endpoint = "", ""
				},
				wantErr: true,
			},
			{name: "empty kind", mutate: func(c *Config) { c.Backend.Kind = "" }, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)

				err := config.Validate()
				if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				if !tt.wantErr && err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
	})

	t.Run("Timeout default", func(t *testing.T) {
		if got := (RemoteConfig{}).Timeout(); got != 10*time.Second {
			t.Errorf("expected 10s default, got %s", got)
		}
	})
}
