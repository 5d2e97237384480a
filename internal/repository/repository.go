package repository

import (
	"context"

	"tincgraph/internal/domain"
)

// PollJournal records poll outcomes
type PollJournal interface {
	// RecordPoll stores one outcome and sets rec.ID
	RecordPoll(ctx context.Context, rec *domain.PollRecord) error

	// RecentPolls returns up to limit outcomes, newest first
	RecentPolls(ctx context.Context, limit int) ([]domain.PollRecord, error)

	// Prune keeps the newest keep rows and returns how many were removed
	Prune(ctx context.Context, keep int) (int64, error)

	Stats(ctx context.Context) (*domain.PollStats, error)

	// Close releases resources
	Close() error
}
