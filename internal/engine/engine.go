// Package engine implements the listing, aggregation and ingestion paths
// over a storage.Store. An Engine holds nothing but the store handle it was
// given, so calls are independent and safe for concurrent use.
package engine

import (
	"context"
	"log/slog"

	"github.com/runnerr0/dnslens/internal/errors"
	"github.com/runnerr0/dnslens/internal/logging"
	"github.com/runnerr0/dnslens/internal/storage"
)

// Engine serves list, summarize and ingest requests against one store.
type Engine struct {
	store  storage.Store
	logger *slog.Logger
}

// New returns an Engine over store. A nil logger discards output.
func New(store storage.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{store: store, logger: logger}
}

// Ping reports whether the store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.KindUnavailable, "ping store")
	}
	return nil
}
