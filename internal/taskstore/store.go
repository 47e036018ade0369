// Package taskstore archives completed tasks in a local SQLite file so the
// in-memory graph can be pruned without losing history.
package taskstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docuflow/docuflow/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_archive (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	level         INTEGER NOT NULL,
	priority      TEXT NOT NULL,
	parent_id     TEXT,
	estimated_ns  INTEGER NOT NULL,
	actual_ns     INTEGER NOT NULL,
	completed_at  TIMESTAMP NOT NULL,
	payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_task_archive_completed_at ON task_archive (completed_at);
`

// Store wraps the archive database. Safe for concurrent use; database/sql
// serializes access to the single SQLite connection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the archive file and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open task archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init task archive schema: %w", err)
	}
	logger.Info("task archive opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Archive upserts a completed task. The full item is stored as JSON next to
// the queryable columns, so schema changes never lose detail.
func (s *Store) Archive(ctx context.Context, t entity.TaskItem) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", t.ID, err)
	}

	var parentID any
	if t.ParentID != nil {
		parentID = t.ParentID.String()
	}
	completedAt := time.Now().UTC()
	if t.CompletedAt != nil {
		completedAt = t.CompletedAt.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_archive (id, title, level, priority, parent_id, estimated_ns, actual_ns, completed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			actual_ns = excluded.actual_ns,
			completed_at = excluded.completed_at,
			payload = excluded.payload`,
		t.ID.String(), t.Title, int(t.Level), string(t.Priority), parentID,
		int64(t.EstimatedDuration), int64(t.ActualDuration), completedAt, string(payload),
	)
	if err != nil {
		return fmt.Errorf("archive task %s: %w", t.ID, err)
	}
	return nil
}

// PruneOlderThan deletes archived tasks completed before now-age and returns
// the number removed.
func (s *Store) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	res, err := s.db.ExecContext(ctx, `DELETE FROM task_archive WHERE completed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune task archive: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("task archive pruned", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

// Count returns the number of archived tasks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_archive`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count task archive: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
