package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tincgraph/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.PollJournal using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the journal at dbPath
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS polls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		ok INTEGER NOT NULL,
		kind TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		nodes INTEGER NOT NULL DEFAULT 0,
		links INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_polls_started ON polls(started_at);
	CREATE INDEX IF NOT EXISTS idx_polls_kind ON polls(kind);
	`

	_, err := r.db.Exec(schema)
	return err
}

// RecordPoll stores one poll outcome
func (r *Repository) RecordPoll(ctx context.Context, rec *domain.PollRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO polls (source, started_at, duration_ms, ok, kind, message, nodes, links, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Source,
		rec.StartedAt.UnixMilli(),
		rec.Duration.Milliseconds(),
		boolToInt(rec.OK),
		rec.Kind,
		rec.Message,
		rec.Nodes,
		rec.Links,
		rec.Skipped,
	)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read poll id: %w", err)
	}
	rec.ID = id
	return nil
}

// RecentPolls returns up to limit outcomes, newest first
func (r *Repository) RecentPolls(ctx context.Context, limit int) ([]domain.PollRecord, error) {
	if limit <= 0 {
		return []domain.PollRecord{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, started_at, duration_ms, ok, kind, message, nodes, links, skipped
		FROM polls
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	records := make([]domain.PollRecord, 0, limit)
	for rows.Next() {
		var (
			rec        domain.PollRecord
			startedAt  int64
			durationMs int64
			ok         int
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &startedAt, &durationMs, &ok,
			&rec.Kind, &rec.Message, &rec.Nodes, &rec.Links, &rec.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedAt)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.OK = ok != 0
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}

	return records, nil
}

// Prune deletes all but the newest keep rows
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM polls
		WHERE id NOT IN (SELECT id FROM polls ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune polls: %w", err)
	}

	return res.RowsAffected()
}

// Stats summarizes the journal
func (r *Repository) Stats(ctx context.Context) (*domain.PollStats, error) {
	stats := &domain.PollStats{ByKind: make(map[string]int)}

	var lastOK, lastFail sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), 0),
			MAX(CASE WHEN ok = 1 THEN started_at END),
			MAX(CASE WHEN ok = 0 THEN started_at END)
		FROM polls
	`).Scan(&stats.Total, &stats.Failed, &lastOK, &lastFail)
	if err != nil {
		return nil, fmt.Errorf("failed to query poll stats: %w", err)
	}
	stats.LastSuccess = nullToTimePtr(lastOK)
	stats.LastFailure = nullToTimePtr(lastFail)

	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM polls WHERE ok = 0 GROUP BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failure kinds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan failure kind: %w", err)
		}
		stats.ByKind[kind] = count
	}

	return stats, rows.Err()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullToTimePtr converts a nullable unix-millisecond column to *time.Time
func nullToTimePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := time.UnixMilli(ni.Int64)
	return &t
}
