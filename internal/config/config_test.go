package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns sensible defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		getValue func(*Config) string
		want     string
	}{
		{"spool dir", func(c *Config) string { return c.Spool.Dir }, "/var/lib/monitoring/piggyback"},
		{"conf dir", func(c *Config) string { return c.Server.ConfDir }, "/etc/monitoring/conf.d/wato"},
		{"folder", func(c *Config) string { return c.Server.Folder }, "auto_containers"},
		{"artifact", func(c *Config) string { return c.Server.Artifact }, "hosts.mk"},
		{"binary", func(c *Config) string { return c.Server.Binary }, "cmk"},
		{"lock path", func(c *Config) string { return c.State.LockPath }, "/var/run/hostkeeper.lock"},
		{"log path", func(c *Config) string { return c.State.LogPath }, "/var/log/hostkeeper.log"},
		{"db path", func(c *Config) string { return c.State.DBPath }, "/var/lib/hostkeeper/hostkeeper.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.getValue(cfg)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if cfg.Spool.MaxAgeMinutes != 240 {
		t.Errorf("Spool.MaxAgeMinutes = %d, want 240", cfg.Spool.MaxAgeMinutes)
	}
	if got := cfg.MaxAge(); got != 240*time.Minute {
		t.Errorf("MaxAge() = %v, want %v", got, 240*time.Minute)
	}
}

// TestLoad tests loading a valid config file
func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "hostkeeper.yaml")

	configContent := `
spool:
  dir: "/custom/piggyback"
  max_age_minutes: 60
server:
  conf_dir: "/custom/wato"
  folder: "containers"
  binary: "/omd/sites/prod/bin/cmk"
state:
  lock_path: "/custom/run/hostkeeper.lock"
  db_path: "/custom/hostkeeper.db"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Spool.Dir != "/custom/piggyback" {
		t.Errorf("Spool.Dir = %q, want %q", cfg.Spool.Dir, "/custom/piggyback")
	}
	if cfg.Spool.MaxAgeMinutes != 60 {
		t.Errorf("Spool.MaxAgeMinutes = %d, want 60", cfg.Spool.MaxAgeMinutes)
	}
	if cfg.Server.Folder != "containers" {
		t.Errorf("Server.Folder = %q, want %q", cfg.Server.Folder, "containers")
	}
	if cfg.Server.Binary != "/omd/sites/prod/bin/cmk" {
		t.Errorf("Server.Binary = %q, want %q", cfg.Server.Binary, "/omd/sites/prod/bin/cmk")
	}

	// Unset fields keep their defaults
	if cfg.Server.Artifact != "hosts.mk" {
		t.Errorf("Server.Artifact = %q, want default %q", cfg.Server.Artifact, "hosts.mk")
	}
	if cfg.State.LogPath != "/var/log/hostkeeper.log" {
		t.Errorf("State.LogPath = %q, want default %q", cfg.State.LogPath, "/var/log/hostkeeper.log")
	}
}

// TestLoadMissingFile verifies Load fails for a nonexistent path
func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/hostkeeper.yaml")
	if err == nil {
		t.Fatal("Load() succeeded for missing file, want error")
	}
}

// TestLoadInvalidYAML verifies Load fails for malformed content
func TestLoadInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "hostkeeper.yaml")

	if err := os.WriteFile(configFile, []byte("spool: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(configFile); err == nil {
		t.Fatal("Load() succeeded for invalid YAML, want error")
	}
}

// TestValidate exercises the rejection cases
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty spool dir", func(c *Config) { c.Spool.Dir = "" }, "spool.dir"},
		{"empty folder", func(c *Config) { c.Server.Folder = "" }, "server.folder"},
		{"negative max age", func(c *Config) { c.Spool.MaxAgeMinutes = -1 }, "max_age_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v, want nil", err)
	}
}

// TestPathHelpers verifies the derived path helpers
func TestPathHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ConfDir = "/etc/wato"
	cfg.Server.Folder = "containers"
	cfg.Server.Artifact = "hosts.mk"

	if got := cfg.FolderDir(); got != "/etc/wato/containers" {
		t.Errorf("FolderDir() = %q, want %q", got, "/etc/wato/containers")
	}
	if got := cfg.ArtifactPath(); got != "/etc/wato/containers/hosts.mk" {
		t.Errorf("ArtifactPath() = %q, want %q", got, "/etc/wato/containers/hosts.mk")
	}
}
