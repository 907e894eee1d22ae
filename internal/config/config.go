package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration
type Config struct {
	Spool  SpoolConfig  `yaml:"spool"`
	Server ServerConfig `yaml:"server"`
	State  StateConfig  `yaml:"state"`
}

// SpoolConfig holds the piggyback spool settings
type SpoolConfig struct {
	Dir           string `yaml:"dir"`
	MaxAgeMinutes int    `yaml:"max_age_minutes"`
}

// ServerConfig holds settings for the monitoring server integration
type ServerConfig struct {
	ConfDir  string `yaml:"conf_dir"`
	Folder   string `yaml:"folder"`
	Artifact string `yaml:"artifact"`
	Binary   string `yaml:"binary"`
}

// StateConfig holds the tool's own state paths
type StateConfig struct {
	LockPath string `yaml:"lock_path"`
	LogPath  string `yaml:"log_path"`
	DBPath   string `yaml:"db_path"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Spool: SpoolConfig{
			Dir:           "/var/lib/monitoring/piggyback",
			MaxAgeMinutes: 240,
		},
		Server: ServerConfig{
			ConfDir:  "/etc/monitoring/conf.d/wato",
			Folder:   "auto_containers",
			Artifact: "hosts.mk",
			Binary:   "cmk",
		},
		State: StateConfig{
			LockPath: "/var/run/hostkeeper.lock",
			LogPath:  "/var/log/hostkeeper.log",
			DBPath:   "/var/lib/hostkeeper/hostkeeper.db",
		},
	}
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"hostkeeper.yaml",
		"/etc/hostkeeper/hostkeeper.yaml",
	}

	// Add user config path
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "hostkeeper", "hostkeeper.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// Validate checks the parts of the config nothing else guards against
func (c *Config) Validate() error {
	if c.Spool.Dir == "" {
		return fmt.Errorf("spool.dir must not be empty")
	}
	if c.Server.Folder == "" {
		return fmt.Errorf("server.folder must not be empty")
	}
	if c.Spool.MaxAgeMinutes < 0 {
		return fmt.Errorf("spool.max_age_minutes must not be negative: %d", c.Spool.MaxAgeMinutes)
	}
	return nil
}

// MaxAge returns the retention threshold as a duration
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.Spool.MaxAgeMinutes) * time.Minute
}

// FolderDir returns the absolute directory of the managed folder
func (c *Config) FolderDir() string {
	return filepath.Join(c.Server.ConfDir, c.Server.Folder)
}

// ArtifactPath returns the absolute path of the generated hosts file
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.FolderDir(), c.Server.Artifact)
}
