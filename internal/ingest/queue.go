package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PipelineQueue fans intake jobs out to a fixed worker pool. Each worker
// runs the processor with its own timeout so one stuck document cannot wedge
// the pool.
type PipelineQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*PipelineQueue)

func WithWorkers(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *PipelineQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewPipelineQueue(proc Processor, logger *slog.Logger, opts ...Option) *PipelineQueue {
	q := &PipelineQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PipelineQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc(ctx, job)
					cancel()

					if err != nil {
						q.logger.Error("processing failed",
							"worker_id", workerID, "path", job.SourcePath, "error", err)
					} else {
						q.logger.Info("processed invoice",
							"worker_id", workerID, "path", job.SourcePath)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *PipelineQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.SourcePath)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued invoice for processing", "path", job.SourcePath)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.SourcePath)
		q.ch <- job
	}
	return nil
}

// Shutdown stops accepting jobs and waits for in-flight ones, bounded by ctx.
func (q *PipelineQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
	}()

	select {
	case <-done:
		q.logger.Info("queue drained")
	case <-ctx.Done():
		q.logger.Warn("queue shutdown timed out", "error", ctx.Err())
	}
}
