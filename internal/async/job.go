package async

import (
	"context"
	"time"

	"github.com/docuflow/docuflow/internal/entity"
)

// Job is the smallest useful unit. Extend as needed later (trace, retry, etc).
type Job struct {
	Document    entity.Document
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor consumes one document. The queue owns the per-job timeout.
type Processor interface {
	Process(ctx context.Context, doc entity.Document) entity.PipelineResult
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, doc entity.Document) entity.PipelineResult

func (f ProcessorFunc) Process(ctx context.Context, doc entity.Document) entity.PipelineResult {
	return f(ctx, doc)
}
