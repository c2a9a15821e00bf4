package worker

import (
	"context"
	"time"

	"inkwell/internal/media"

	"go.uber.org/zap"
)

// MaxAttempts bounds how often a single asset deletion is retried.
const MaxAttempts = 5

// Source yields cleanup jobs and accepts retries.
type Source interface {
	Push(ctx context.Context, job Job) error
	Pop(ctx context.Context) (Job, error)
}

type Worker struct {
	queue   Source
	media   media.Deleter
	logger  *zap.Logger
	backoff time.Duration
}

func NewWorker(queue Source, deleter media.Deleter, logger *zap.Logger) *Worker {
	return &Worker{
		queue:   queue,
		media:   deleter,
		logger:  logger.With(zap.String("component", "worker")),
		backoff: time.Second,
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started. Waiting for jobs...")

	for {
		job, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Worker shutting down")
				return
			}
			w.logger.Error("Queue error", zap.Error(err))
			w.sleep(ctx)
			continue
		}

		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job Job) {
	logger := w.logger.With(zap.String("asset_id", job.AssetID), zap.Int("attempt", job.Attempts+1))

	if err := w.media.Delete(ctx, job.AssetID); err != nil {
		w.failJob(ctx, logger, job, err)
		return
	}

	logger.Info("Orphaned asset removed")
}

func (w *Worker) failJob(ctx context.Context, logger *zap.Logger, job Job, cause error) {
	job.Attempts++
	if job.Attempts >= MaxAttempts {
		logger.Error("Giving up on orphaned asset", zap.Error(cause))
		return
	}

	logger.Warn("Asset cleanup failed, retrying", zap.Error(cause))
	w.sleep(ctx)
	// The job is already off the queue; it goes back even during shutdown.
	if err := w.queue.Push(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("Failed to requeue job", zap.Error(err))
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.backoff):
	}
}
