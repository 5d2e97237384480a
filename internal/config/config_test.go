package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Daemon.PidFile != DefaultPidFile {
		t.Errorf("Daemon.PidFile = %s, want %s", cfg.Daemon.PidFile, DefaultPidFile)
	}
	if !cfg.Daemon.Watching() {
		t.Error("Daemon.WatchPidFile should default to true")
	}
	if cfg.Poll.Interval.Duration() != 20*time.Second {
		t.Errorf("Poll.Interval = %s, want 20s", cfg.Poll.Interval.Duration())
	}
	if cfg.Poll.RetryDelay.Duration() != time.Second {
		t.Errorf("Poll.RetryDelay = %s, want 1s", cfg.Poll.RetryDelay.Duration())
	}
	if cfg.Poll.RetryBudget.Duration() != 5*time.Second {
		t.Errorf("Poll.RetryBudget = %s, want 5s", cfg.Poll.RetryBudget.Duration())
	}
	if cfg.Snapshot.OnFailure != FailureDegrade {
		t.Errorf("Snapshot.OnFailure = %s, want %s", cfg.Snapshot.OnFailure, FailureDegrade)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSnapshotFiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Web.Root = "/srv/www"

	if got := cfg.GraphFile(); got != "/srv/www/data/nodes.json" {
		t.Errorf("GraphFile() = %s", got)
	}
	if got := cfg.StatusFile(); got != "/srv/www/data/status.json" {
		t.Errorf("StatusFile() = %s", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errSub string
	}{
		{"zero interval", func(c *Config) { c.Poll.Interval = Duration(-time.Second) }, "poll.interval"},
		{"zero retry delay", func(c *Config) { c.Poll.RetryDelay = Duration(-1) }, "poll.retry_delay"},
		{"budget shorter than delay", func(c *Config) {
			c.Poll.RetryDelay = Duration(3 * time.Second)
			c.Poll.RetryBudget = Duration(time.Second)
		}, "poll.retry_budget"},
		{"unknown failure policy", func(c *Config) { c.Snapshot.OnFailure = "panic" }, "snapshot.on_failure"},
		{"negative keep", func(c *Config) { c.Journal.Keep = -1 }, "journal.keep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q should mention %s", err, tt.errSub)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Daemon.PidFile = "/run/tinc.mesh.pid"
	cfg.Poll.Interval = Duration(time.Minute)
	cfg.Snapshot.OnFailure = FailureExit
	cfg.Debug = true

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Daemon.PidFile != "/run/tinc.mesh.pid" {
		t.Errorf("Daemon.PidFile = %s", loaded.Daemon.PidFile)
	}
	if loaded.Poll.Interval.Duration() != time.Minute {
		t.Errorf("Poll.Interval = %s, want 1m", loaded.Poll.Interval.Duration())
	}
	if loaded.Snapshot.OnFailure != FailureExit {
		t.Errorf("Snapshot.OnFailure = %s, want exit", loaded.Snapshot.OnFailure)
	}
	if !loaded.Debug {
		t.Error("Debug should be true")
	}
	if !loaded.Daemon.Watching() {
		t.Error("watcher should stay on when unset")
	}
}

func TestWatchingCanBeDisabled(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configPath, []byte("daemon:\n  watch_pid_file: false\n"), 0644)

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Daemon.Watching() {
		t.Error("Watching() = true, want false")
	}
}

func TestLoadPartialFileAppliesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "daemon:\n  pid_file: /tmp/t.pid\npoll:\n  interval: 45s\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Poll.Interval.Duration() != 45*time.Second {
		t.Errorf("Poll.Interval = %s, want 45s", cfg.Poll.Interval.Duration())
	}
	if cfg.Poll.RetryBudget.Duration() != DefaultRetryBudget {
		t.Errorf("Poll.RetryBudget = %s, want default", cfg.Poll.RetryBudget.Duration())
	}
	if cfg.Web.Root != DefaultWebRoot {
		t.Errorf("Web.Root = %s, want default", cfg.Web.Root)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configPath, []byte("poll:\n  interval: soon\n"), 0644)

	if _, _, err := LoadFromPath(configPath); err == nil {
		t.Error("expected parse error for bad duration")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := DefaultConfig().Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}

	// Missing explicit path falls through to the working directory
	t.Setenv(EnvConfigPath, filepath.Join(tmpDir, "missing.yaml"))
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	if err := DefaultConfig().Save(ConfigFileName); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	found := FindConfigPath()
	if filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %s, want working directory %s", found, ConfigFileName)
	}
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv(EnvConfigPath, "/explicit.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/op")

	paths := SearchPaths()
	want := []string{
		"/explicit.yaml",
		ConfigFileName,
		"/xdg/tincgraph/config.yaml",
		"/home/op/.config/tincgraph/config.yaml",
		"/etc/tincgraph/config.yaml",
	}
	if len(paths) != len(want) {
		t.Fatalf("SearchPaths() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("SearchPaths()[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
