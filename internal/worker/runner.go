package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mailrep/internal/queue"
	"mailrep/internal/store"
)

// Source is the queue side the runner consumes.
type Source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (queue.Task, error)
}

// Runner drains queued verification snapshots into the history store.
type Runner struct {
	source       Source
	history      store.History
	logger       *zap.Logger
	pollTimeout  time.Duration
	writeTimeout time.Duration
	backoff      time.Duration
}

func NewRunner(source Source, history store.History, logger *zap.Logger, writeTimeout time.Duration) *Runner {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:       source,
		history:      history,
		logger:       logger,
		pollTimeout:  5 * time.Second,
		writeTimeout: writeTimeout,
		backoff:      time.Second,
	}
}

// Run blocks until ctx is cancelled, saving each task as it arrives.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Worker started, waiting for tasks")

	for {
		if ctx.Err() != nil {
			r.logger.Info("Worker stopping")
			return nil
		}

		task, err := r.source.Dequeue(ctx, r.pollTimeout)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			continue
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			r.logger.Error("Dequeue failed", zap.Error(err))
			select {
			case <-time.After(r.backoff): // Backoff on error
			case <-ctx.Done():
			}
			continue
		}

		r.process(ctx, task)
	}
}

func (r *Runner) process(ctx context.Context, task queue.Task) {
	// The write gets its own deadline but survives shutdown of ctx so a
	// popped task is not lost mid-write.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	res := task.Result
	if err := r.history.Save(saveCtx, res); err != nil {
		r.logger.Error("Failed to save result",
			zap.String("id", res.ID),
			zap.String("email", res.Email),
			zap.Error(err))
		return
	}

	r.logger.Info("Processed",
		zap.String("id", res.ID),
		zap.String("email", res.Email),
		zap.Int("score", res.Score),
		zap.Duration("queued_for", time.Since(task.EnqueuedAt)))
}
