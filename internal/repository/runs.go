package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/entity"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id           UUID PRIMARY KEY,
	document_id  UUID NOT NULL,
	source_path  TEXT NOT NULL,
	doc_type     TEXT NOT NULL,
	status       TEXT NOT NULL,
	confidence   REAL NOT NULL,
	duration_ms  BIGINT NOT NULL,
	extracted    JSONB,
	error_stage  TEXT,
	error_msg    TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_document_id ON pipeline_runs (document_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_created_at ON pipeline_runs (created_at);
`

// RunRepository persists completed pipeline runs. Write-only from the
// pipeline's point of view; reporting reads the table directly.
type RunRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRunRepository(pool *pgxpool.Pool, logger *slog.Logger) *RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunRepository{pool: pool, logger: logger}
}

// EnsureSchema creates the runs table if missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, runsSchema); err != nil {
		return fmt.Errorf("ensure pipeline_runs schema: %w", err)
	}
	return nil
}

// SaveRun records one per-document result.
func (r *RunRepository) SaveRun(ctx context.Context, doc entity.Document, res entity.PipelineResult) error {
	var extracted []byte
	if res.Extracted != nil && !res.Extracted.Empty() {
		var err error
		extracted, err = json.Marshal(res.Extracted)
		if err != nil {
			return fmt.Errorf("marshal extracted data: %w", err)
		}
	}

	var errStage, errMsg any
	if res.Err != nil {
		errStage = res.Err.Stage
		errMsg = res.Err.Message
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO pipeline_runs
			(id, document_id, source_path, doc_type, status, confidence, duration_ms, extracted, error_stage, error_msg, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.New(), doc.ID, doc.SourcePath, string(doc.DocType), string(res.Status),
		res.Confidence, res.Duration.Milliseconds(), extracted, errStage, errMsg, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save run for document %s: %w", doc.ID, err)
	}
	r.logger.Debug("run saved", "document_id", doc.ID, "status", res.Status)
	return nil
}

// SaveBatch persists every result in a batch, continuing past individual
// failures. Returns the first error encountered, if any.
func (r *RunRepository) SaveBatch(ctx context.Context, docs []entity.Document, results []entity.PipelineResult) error {
	var firstErr error
	for i, res := range results {
		if i >= len(docs) {
			break
		}
		if err := r.SaveRun(ctx, docs[i], res); err != nil {
			r.logger.Error("failed to save run", "document_id", docs[i].ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
