package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mailrep/internal/di"
	"mailrep/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := start(ctx); err != nil {
		log.Fatalf("❌ mailrep worker failed: %v", err)
	}
}

// start wires dependencies and drains the history queue until ctx is done.
func start(ctx context.Context) error {
	container, err := di.BuildWorkerContainer()
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}

	return container.Invoke(func(runner *worker.Runner, logger *zap.Logger, closers *di.Closers) error {
		defer logger.Sync()
		defer closers.Close()

		logger.Info("Starting mailrep history worker")
		return runner.Run(ctx)
	})
}
