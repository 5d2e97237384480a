package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Poll     PollConfig     `yaml:"poll"`
	Web      WebConfig      `yaml:"web"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Journal  JournalConfig  `yaml:"journal"`
	Debug    bool           `yaml:"debug"`
}

// DaemonConfig locates the tinc control socket
type DaemonConfig struct {
	// PidFile is written by tincd and holds the control port and cookie
	PidFile string `yaml:"pid_file"`
	// ControlHost is the loopback address the control socket listens on
	ControlHost string `yaml:"control_host"`
	// WatchPidFile triggers an immediate poll when tincd rewrites its pid file; nil means on
	WatchPidFile *bool `yaml:"watch_pid_file,omitempty"`
}

// Watching reports whether the pid file watcher should run
func (d DaemonConfig) Watching() bool {
	return d.WatchPidFile == nil || *d.WatchPidFile
}

// PollConfig holds scheduling and retry settings
type PollConfig struct {
	Interval    Duration `yaml:"interval"`
	RetryDelay  Duration `yaml:"retry_delay"`
	RetryBudget Duration `yaml:"retry_budget"`
}

// WebConfig holds the HTTP server settings
type WebConfig struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"` // static files, the snapshot is written below it
}

// FailurePolicy decides what a terminal poll failure does to the process
type FailurePolicy string

const (
	// FailureDegrade keeps serving the last snapshot and reports the failure in the status file
	FailureDegrade FailurePolicy = "degrade"
	// FailureExit stops the process when the daemon's pid file is missing
	FailureExit FailurePolicy = "exit"
)

// SnapshotConfig holds snapshot file settings, paths relative to Web.Root
type SnapshotConfig struct {
	GraphPath  string        `yaml:"graph_path"`
	StatusPath string        `yaml:"status_path"`
	OnFailure  FailurePolicy `yaml:"on_failure"`
}

// JournalConfig holds the poll journal database settings
type JournalConfig struct {
	Path string `yaml:"path"`
	Keep int    `yaml:"keep"` // rows retained after pruning
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
