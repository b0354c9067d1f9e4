// Package reconcile runs catalog reconciliation passes over pallets.
//
// A pass partitions a pallet's items into batches, asks the catalog which
// ISBNs of each batch it holds, and records the outcome on every item. Results
// are staged until every batch has been answered: a pass that fails part way
// leaves the pallet exactly as it was.
package reconcile

import (
	"context"
	"time"

	"github.com/agentstation/promise/pkg/batch"
	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/isbn"
	"github.com/agentstation/promise/pkg/logging"
	"github.com/agentstation/promise/pkg/pallets"
)

// Querier reports which of the given ISBNs a catalog holds.
//
// Query must return exactly the subset of isbns confirmed present. It must
// never report a failure as absence: remote failures are returned as
// errors.TransportError and truncated answers as errors.ResultOverflowError.
type Querier interface {
	Query(ctx context.Context, isbns []string) (isbn.Set, error)
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(ctx context.Context, isbns []string) (isbn.Set, error)

// Query calls f.
func (f QuerierFunc) Query(ctx context.Context, isbns []string) (isbn.Set, error) {
	return f(ctx, isbns)
}

// BatchHook is called after each batch is answered with the number of
// batches done and the total for the pass.
type BatchHook func(done, total int)

// Engine runs reconciliation passes.
type Engine struct {
	querier   Querier
	batchSize int
	hooks     []BatchHook
	clock     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine) error

// New creates an Engine backed by q.
func New(q Querier, opts ...Option) (*Engine, error) {
	if q == nil {
		return nil, errors.NewValidationError("querier", nil, "is required")
	}
	e := &Engine{
		querier:   q,
		batchSize: constants.DefaultBatchSize,
		clock:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// WithBatchSize sets how many ISBNs are sent per catalog query.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size <= 0 || size > constants.MaxBatchSize {
			return errors.NewValidationError("batch_size", size, "must be between 1 and 500")
		}
		e.batchSize = size
		return nil
	}
}

// WithBatchHook registers a progress callback.
func WithBatchHook(hook BatchHook) Option {
	return func(e *Engine) error {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
		return nil
	}
}

// WithClock sets the clock used to time passes.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) error {
		if clock != nil {
			e.clock = clock
		}
		return nil
	}
}

// BatchSize returns the configured batch size.
func (e *Engine) BatchSize() int {
	return e.batchSize
}

// Reconcile runs one pass over p. On success every item's presence reflects
// this pass, items observed for the first time get their origin, and the
// pallet is marked queried. On error p is left unchanged.
func (e *Engine) Reconcile(ctx context.Context, p *pallets.Pallet) (*Result, error) {
	start := e.clock()
	logger := logging.FromContext(ctx).With().
		Str("pallet", p.Name()).
		Int("items", p.Len()).
		Int("batch_size", e.batchSize).
		Logger()

	items := p.Items()
	batches, err := batch.Slice(items, e.batchSize)
	if err != nil {
		return nil, err
	}
	total := batch.Count(len(items), e.batchSize)

	// Stage every answer before touching the pallet.
	staged := make([]bool, 0, len(items))
	done := 0
	for chunk := range batches {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled("reconcile "+p.Name(), err)
		}

		ids := make([]string, len(chunk))
		for i, item := range chunk {
			ids[i] = item.ISBN
		}

		found, err := e.querier.Query(ctx, ids)
		if err != nil {
			logger.Warn().Err(err).Int("batch", done+1).Int("batches", total).Msg("Catalog query failed, pallet left unchanged")
			return nil, errors.WrapResource("reconcile", "pallet", p.Name(), err)
		}
		for _, id := range ids {
			staged = append(staged, found.Has(id))
		}

		done++
		logger.Debug().Int("batch", done).Int("batches", total).Int("found", found.Len()).Msg("Batch checked")
		for _, hook := range e.hooks {
			hook(done, total)
		}
	}

	// Commit.
	result := &Result{Pallet: p.Name(), Batches: done}
	for i, item := range items {
		wasAbsent := item.Presence == pallets.Absent
		item.Observe(staged[i])
		switch item.Presence {
		case pallets.Present:
			result.Hits = append(result.Hits, item.ISBN)
			if wasAbsent {
				result.Recovered = append(result.Recovered, item.ISBN)
			}
		case pallets.Absent:
			result.Misses = append(result.Misses, item.ISBN)
		}
		if item.OriginallyMissing() {
			result.OriginalMisses = append(result.OriginalMisses, item.ISBN)
		}
	}
	p.MarkQueried()
	result.Duration = e.clock().Sub(start)

	logger.Info().
		Int("hits", len(result.Hits)).
		Int("misses", len(result.Misses)).
		Int("original_misses", len(result.OriginalMisses)).
		Int("recovered", len(result.Recovered)).
		Dur("duration", result.Duration).
		Msg("Pallet reconciled")

	return result, nil
}
