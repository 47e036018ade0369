package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/docuflow/docuflow/constants"
)

// DocumentQueue runs a fixed worker pool over enqueued documents. Enqueue
// blocks once the buffer fills (backpressure); Shutdown drains in-flight
// jobs or gives up when its context expires.
type DocumentQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu        sync.Mutex
	closed    bool
	producers sync.WaitGroup
}

type Option func(*DocumentQueue)

func WithWorkers(n int) Option {
	return func(q *DocumentQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *DocumentQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *DocumentQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewDocumentQueue(proc Processor, logger *slog.Logger, opts ...Option) *DocumentQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &DocumentQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *DocumentQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res := q.proc.Process(ctx, job.Document)
					cancel()

					if res.Status == constants.DocStatusFailed {
						stage := ""
						if res.Err != nil {
							stage = res.Err.Stage
						}
						q.logger.Error("processing failed",
							"worker_id", workerID,
							"document_id", job.Document.ID,
							"stage", stage,
						)
					} else {
						q.logger.Info("processed document",
							"worker_id", workerID,
							"document_id", job.Document.ID,
							"status", res.Status,
						)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *DocumentQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "document_id", job.Document.ID)
		return nil
	}
	q.producers.Add(1)
	q.mu.Unlock()
	defer q.producers.Done()

	// The blocking send happens outside the lock so a full buffer cannot
	// stall Shutdown; a shutdown started mid-send releases the producer.
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "document_id", job.Document.ID)
	default:
		q.logger.Warn("queue full, applying backpressure", "document_id", job.Document.ID)
		select {
		case q.ch <- job:
			q.logger.Info("queued document for processing", "document_id", job.Document.ID)
		case <-q.done:
			q.logger.Warn("job dropped: queue shut down during backpressure", "document_id", job.Document.ID)
		}
	}
	return nil
}

func (q *DocumentQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// No producer can register anymore; wait out those mid-send before
	// closing the channel under them.
	q.producers.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
