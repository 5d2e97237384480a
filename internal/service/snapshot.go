package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"tincgraph/internal/codec"
	"tincgraph/internal/config"
	"tincgraph/internal/control"
	"tincgraph/internal/domain"
	"tincgraph/internal/repository"
)

// ErrFatalPoll is returned by Publish when the failure policy says the process should stop
var ErrFatalPoll = errors.New("fatal poll failure")

// PollResult is one completed poll as handed over by the adapter registry
type PollResult struct {
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Graph     *domain.Graph
	Skipped   int
	Err       error
}

// Status is the error-status snapshot written next to the graph after every poll
type Status struct {
	OK       bool      `json:"ok"`
	Kind     string    `json:"kind,omitempty"`
	Message  string    `json:"message,omitempty"`
	Source   string    `json:"source,omitempty"`
	PolledAt time.Time `json:"polled_at"`
	Nodes    int       `json:"nodes"`
	Links    int       `json:"links"`
	Skipped  int       `json:"skipped"`
}

// SnapshotOptions configures a SnapshotService
type SnapshotOptions struct {
	GraphPath  string
	StatusPath string
	OnFailure  config.FailurePolicy
	// Keep bounds the journal; zero disables pruning
	Keep int
}

// SnapshotService publishes poll results: the graph file read by the web
// front-end, the status file, the poll journal and SSE events.
type SnapshotService struct {
	opts     SnapshotOptions
	journal  repository.PollJournal
	eventBus *EventBus
	json     *codec.JSONCodec

	mu     sync.RWMutex
	status Status
}

// NewSnapshotService creates a snapshot service. journal may be nil.
func NewSnapshotService(opts SnapshotOptions, journal repository.PollJournal, eventBus *EventBus) *SnapshotService {
	if opts.OnFailure == "" {
		opts.OnFailure = config.FailureDegrade
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	return &SnapshotService{
		opts:     opts,
		journal:  journal,
		eventBus: eventBus,
		json:     codec.NewJSONCodec(),
		status: Status{
			Message: "waiting for first poll",
		},
	}
}

// Publish records one poll result.
// A successful result replaces the graph file; a failed one leaves the last graph in place.
func (s *SnapshotService) Publish(ctx context.Context, res PollResult) error {
	if res.StartedAt.IsZero() {
		res.StartedAt = time.Now()
	}

	if res.Err == nil && res.Graph == nil {
		res.Err = fmt.Errorf("adapter %s returned no graph", res.Source)
	}

	if res.Err == nil {
		if err := writeFileAtomic(s.opts.GraphPath, func(w io.Writer) error {
			return s.json.Export(res.Graph, w)
		}); err != nil {
			res.Err = fmt.Errorf("failed to write snapshot: %w", err)
		}
	}

	status := statusFor(res)

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if s.opts.StatusPath != "" {
		if err := writeFileAtomic(s.opts.StatusPath, func(w io.Writer) error {
			return writeJSON(w, status)
		}); err != nil {
			log.Printf("Failed to write status file: %v", err)
		}
	}

	s.record(ctx, res, status)

	if status.OK {
		log.Printf("Snapshot updated from %s: %s", res.Source, res.Graph.Summary())
		s.eventBus.Publish(Event{
			Type: EventSnapshotUpdated,
			Payload: SnapshotPayload{
				Source:   res.Source,
				Nodes:    status.Nodes,
				Links:    status.Links,
				PolledAt: status.PolledAt.Format(time.RFC3339),
			},
		})
		return nil
	}

	log.Printf("Poll of %s failed: %s", res.Source, status.Message)
	s.eventBus.Publish(Event{
		Type: EventPollFailed,
		Payload: FailurePayload{
			Source:  res.Source,
			Kind:    status.Kind,
			Message: status.Message,
		},
	})

	if s.opts.OnFailure == config.FailureExit {
		if kind, ok := control.KindOf(res.Err); ok && kind == control.KindIdentityNotFound {
			return fmt.Errorf("%w: %v", ErrFatalPoll, res.Err)
		}
	}

	return nil
}

func (s *SnapshotService) record(ctx context.Context, res PollResult, status Status) {
	if s.journal == nil {
		return
	}

	rec := &domain.PollRecord{
		Source:    res.Source,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		OK:        status.OK,
		Kind:      status.Kind,
		Message:   status.Message,
		Nodes:     status.Nodes,
		Links:     status.Links,
		Skipped:   status.Skipped,
	}
	if err := s.journal.RecordPoll(ctx, rec); err != nil {
		log.Printf("Failed to journal poll: %v", err)
		return
	}

	if s.opts.Keep > 0 {
		if _, err := s.journal.Prune(ctx, s.opts.Keep); err != nil {
			log.Printf("Failed to prune poll journal: %v", err)
		}
	}
}

// Graph returns the last published graph, or an empty graph before the first success
func (s *SnapshotService) Graph(ctx context.Context) (*domain.Graph, error) {
	f, err := os.Open(s.opts.GraphPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewGraph(), nil
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return s.json.Parse(f)
}

// Status returns the outcome of the most recent poll
func (s *SnapshotService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// RecentPolls returns journaled poll outcomes, newest first
func (s *SnapshotService) RecentPolls(ctx context.Context, limit int) ([]domain.PollRecord, error) {
	if s.journal == nil {
		return []domain.PollRecord{}, nil
	}
	return s.journal.RecentPolls(ctx, limit)
}

// Stats summarizes the poll journal
func (s *SnapshotService) Stats(ctx context.Context) (*domain.PollStats, error) {
	if s.journal == nil {
		return &domain.PollStats{ByKind: map[string]int{}}, nil
	}
	return s.journal.Stats(ctx)
}

func statusFor(res PollResult) Status {
	status := Status{
		OK:       res.Err == nil,
		Source:   res.Source,
		PolledAt: res.StartedAt.Add(res.Duration),
		Skipped:  res.Skipped,
	}

	if res.Err != nil {
		status.Message = res.Err.Error()
		if kind, ok := control.KindOf(res.Err); ok {
			status.Kind = kind.String()
		} else {
			status.Kind = "internal"
		}
		return status
	}

	status.Nodes = len(res.Graph.Nodes)
	status.Links = len(res.Graph.Links)
	return status
}
