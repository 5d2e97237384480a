package domain

import "time"

// PollRecord is the journaled outcome of one poll of a control daemon.
// Kind is empty for successful polls.
type PollRecord struct {
	ID        int64         `json:"id"`
	Source    string        `json:"source"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ms"`
	OK        bool          `json:"ok"`
	Kind      string        `json:"kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	Nodes     int           `json:"nodes"`
	Links     int           `json:"links"`
	Skipped   int           `json:"skipped"`
}

// PollStats summarizes the journal
type PollStats struct {
	Total       int            `json:"total"`
	Failed      int            `json:"failed"`
	LastSuccess *time.Time     `json:"last_success,omitempty"`
	LastFailure *time.Time     `json:"last_failure,omitempty"`
	ByKind      map[string]int `json:"by_kind"`
}
