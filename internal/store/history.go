package store

import (
	"context"
	"errors"
	"fmt"

	"mailrep/internal/models"
)

// ErrUnknownDriver is returned by Open for an unsupported store.driver value.
var ErrUnknownDriver = errors.New("unknown store driver")

// History is an append-only log of verification snapshots.
type History interface {
	// Save appends one snapshot. Existing entries are never updated.
	Save(ctx context.Context, res models.VerificationResult) error

	// Recent returns up to limit snapshots, newest first.
	Recent(ctx context.Context, limit int) ([]models.VerificationResult, error)

	Close()
}

// Options selects and configures a History backend.
type Options struct {
	Driver      string
	PostgresURL string
	SQLitePath  string
}

// Open connects to the configured backend and applies migrations.
func Open(ctx context.Context, opts Options) (History, error) {
	switch opts.Driver {
	case "postgres", "":
		return Connect(ctx, opts.PostgresURL)
	case "sqlite":
		return OpenSQLite(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
