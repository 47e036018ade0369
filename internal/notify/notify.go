package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
)

// ProgressEvent reports per-stage progress for one document.
type ProgressEvent struct {
	DocumentID      uuid.UUID
	Stage           string
	PercentComplete int
}

// TerminalEvent reports the final outcome for one document.
type TerminalEvent struct {
	DocumentID uuid.UUID
	Status     constants.DocStatus
	Confidence float32
}

// Sink receives pipeline observability events. Implementations must be safe
// for concurrent use; the coordinator calls them from multiple workers.
type Sink interface {
	Progress(ctx context.Context, ev ProgressEvent)
	Terminal(ctx context.Context, ev TerminalEvent)
}

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Progress(_ context.Context, ev ProgressEvent) {
	s.logger.Info("stage progress",
		"document_id", ev.DocumentID,
		"stage", ev.Stage,
		"percent", ev.PercentComplete,
	)
}

func (s *LogSink) Terminal(_ context.Context, ev TerminalEvent) {
	s.logger.Info("document finished",
		"document_id", ev.DocumentID,
		"status", ev.Status,
		"confidence", ev.Confidence,
	)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Progress(context.Context, ProgressEvent) {}
func (NopSink) Terminal(context.Context, TerminalEvent) {}
