// Package config provides configuration management for tincgraph.
//
// Config file locations (priority order):
//  1. $TINCGRAPH_CONFIG
//  2. ./tincgraph.yaml
//  3. $XDG_CONFIG_HOME/tincgraph/config.yaml
//  4. ~/.config/tincgraph/config.yaml
//  5. /etc/tincgraph/config.yaml
//
// Command line flags override values from the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a single-host deployment serving ./www
const (
	DefaultPidFile     = "/root/tinc/tinc.pid"
	DefaultControlHost = "127.0.0.1"
	DefaultAddr        = ":8080"
	DefaultWebRoot     = "./www"
	DefaultGraphPath   = "data/nodes.json"
	DefaultStatusPath  = "data/status.json"
	DefaultJournalPath = "./tincgraph.db"
	DefaultJournalKeep = 1000

	DefaultInterval    = 20 * time.Second
	DefaultRetryDelay  = time.Second
	DefaultRetryBudget = 5 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Daemon.PidFile == "" {
		c.Daemon.PidFile = DefaultPidFile
	}
	if c.Daemon.ControlHost == "" {
		c.Daemon.ControlHost = DefaultControlHost
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = Duration(DefaultInterval)
	}
	if c.Poll.RetryDelay == 0 {
		c.Poll.RetryDelay = Duration(DefaultRetryDelay)
	}
	if c.Poll.RetryBudget == 0 {
		c.Poll.RetryBudget = Duration(DefaultRetryBudget)
	}
	if c.Web.Addr == "" {
		c.Web.Addr = DefaultAddr
	}
	if c.Web.Root == "" {
		c.Web.Root = DefaultWebRoot
	}
	if c.Snapshot.GraphPath == "" {
		c.Snapshot.GraphPath = DefaultGraphPath
	}
	if c.Snapshot.StatusPath == "" {
		c.Snapshot.StatusPath = DefaultStatusPath
	}
	if c.Snapshot.OnFailure == "" {
		c.Snapshot.OnFailure = FailureDegrade
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath
	}
	if c.Journal.Keep == 0 {
		c.Journal.Keep = DefaultJournalKeep
	}
}

// Validate rejects settings the poller cannot run with
func (c *Config) Validate() error {
	if c.Poll.Interval.Duration() <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.RetryDelay.Duration() <= 0 {
		return fmt.Errorf("poll.retry_delay must be positive")
	}
	if c.Poll.RetryBudget.Duration() < c.Poll.RetryDelay.Duration() {
		return fmt.Errorf("poll.retry_budget (%s) must not be shorter than poll.retry_delay (%s)",
			c.Poll.RetryBudget.Duration(), c.Poll.RetryDelay.Duration())
	}
	switch c.Snapshot.OnFailure {
	case FailureDegrade, FailureExit:
	default:
		return fmt.Errorf("snapshot.on_failure must be %q or %q, got %q",
			FailureDegrade, FailureExit, c.Snapshot.OnFailure)
	}
	if c.Journal.Keep < 0 {
		return fmt.Errorf("journal.keep must not be negative")
	}
	return nil
}

// GraphFile returns the absolute-or-relative path of the graph snapshot
func (c *Config) GraphFile() string {
	return filepath.Join(c.Web.Root, c.Snapshot.GraphPath)
}

// StatusFile returns the path of the poll status snapshot
func (c *Config) StatusFile() string {
	return filepath.Join(c.Web.Root, c.Snapshot.StatusPath)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Pid file: %s (watch=%v), control host: %s\n",
		c.Daemon.PidFile, c.Daemon.Watching(), c.Daemon.ControlHost)
	summary += fmt.Sprintf("Poll every %s, retry %s within %s\n",
		c.Poll.Interval.Duration(), c.Poll.RetryDelay.Duration(), c.Poll.RetryBudget.Duration())
	summary += fmt.Sprintf("Serving %s on %s, snapshot %s, on failure: %s",
		c.Web.Root, c.Web.Addr, c.Snapshot.GraphPath, c.Snapshot.OnFailure)
	return summary
}
