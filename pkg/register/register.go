// Package register asks the catalog to import ISBNs a pallet is missing.
//
// Registration is best-effort and fire-and-forget: the driver marks every
// attempted item, paces its requests, and never changes an item's presence or
// origin. Whether an import succeeded is learned by the next reconciliation
// pass.
package register

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/logging"
	"github.com/agentstation/promise/pkg/pallets"
)

// Outcome is the catalog's answer to a registration request.
type Outcome int

// Outcome values.
const (
	// OutcomeAccepted means the catalog resolved or imported the ISBN.
	OutcomeAccepted Outcome = iota
	// OutcomeNotFound means the catalog could not find a source to import from.
	OutcomeNotFound
	// OutcomeFailed means the request failed for any other reason.
	OutcomeFailed
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Registerer asks a catalog to import one ISBN. Implementations return
// OutcomeFailed together with the error that caused it.
type Registerer interface {
	Register(ctx context.Context, isbn string) (Outcome, error)
}

// RegistererFunc adapts a function to the Registerer interface.
type RegistererFunc func(ctx context.Context, isbn string) (Outcome, error)

// Register calls f.
func (f RegistererFunc) Register(ctx context.Context, isbn string) (Outcome, error) {
	return f(ctx, isbn)
}

// ItemHook is called after each registration attempt.
type ItemHook func(item *pallets.Item, outcome Outcome, err error)

// Options controls a registration run.
type Options struct {
	// Delay is the pause between consecutive requests
	Delay time.Duration

	// SkipAttempted skips items a previous run already attempted
	SkipAttempted bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		Delay:         constants.DefaultRegistrationDelay,
		SkipAttempted: true,
	}
}

// Report summarizes a registration run.
type Report struct {
	Pallet    string
	Attempted []string
	Skipped   []string
	Accepted  int
	NotFound  int
	Failed    int
}

// Driver runs registration over a pallet's misses.
type Driver struct {
	registerer Registerer
	hooks      []ItemHook
	wait       func(ctx context.Context, d time.Duration) error
}

// Option configures a Driver.
type Option func(*Driver)

// WithItemHook registers a callback invoked after each attempt.
func WithItemHook(hook ItemHook) Option {
	return func(d *Driver) {
		if hook != nil {
			d.hooks = append(d.hooks, hook)
		}
	}
}

// WithWait replaces the function used to pause between requests.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) {
		if wait != nil {
			d.wait = wait
		}
	}
}

// New creates a Driver.
func New(r Registerer, opts ...Option) (*Driver, error) {
	if r == nil {
		return nil, errors.NewValidationError("registerer", nil, "is required")
	}
	d := &Driver{registerer: r, wait: sleep}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RegisterMisses requests registration of every item absent at the last pass.
// Every request marks its item attempted whatever the outcome. Remote
// failures are logged and counted but do not stop the run. Cancellation is
// honoured between items; a canceled run does not mark the pallet's
// registration run complete.
func (d *Driver) RegisterMisses(ctx context.Context, p *pallets.Pallet, opts Options) (*Report, error) {
	misses, err := p.Misses()
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).With().Str("pallet", p.Name()).Logger()
	report := &Report{Pallet: p.Name()}

	var pending []*pallets.Item
	for _, item := range misses {
		if opts.SkipAttempted && item.RegistrationAttempted {
			report.Skipped = append(report.Skipped, item.ISBN)
			continue
		}
		pending = append(pending, item)
	}
	logger.Info().Int("misses", len(misses)).Int("pending", len(pending)).Int("skipped", len(report.Skipped)).Msg("Registering misses")

	for i, item := range pending {
		if i > 0 && opts.Delay > 0 {
			if err := d.wait(ctx, opts.Delay); err != nil {
				return report, errors.WrapCanceled("register misses of "+p.Name(), err)
			}
		}
		if err := ctx.Err(); err != nil {
			return report, errors.WrapCanceled("register misses of "+p.Name(), err)
		}

		outcome, regErr := d.registerer.Register(ctx, item.ISBN)
		item.MarkAttempted()
		p.Touch()
		report.Attempted = append(report.Attempted, item.ISBN)

		switch outcome {
		case OutcomeAccepted:
			report.Accepted++
		case OutcomeNotFound:
			report.NotFound++
		default:
			report.Failed++
		}

		event := logger.Debug()
		if regErr != nil {
			event = logger.Warn().Err(regErr)
		}
		event.Str("isbn", item.ISBN).Str("outcome", outcome.String()).Msg("Registration requested")

		for _, hook := range d.hooks {
			hook(item, outcome, regErr)
		}
	}

	p.MarkRegistrationRun()
	logger.Info().
		Int("attempted", len(report.Attempted)).
		Int("accepted", report.Accepted).
		Int("not_found", report.NotFound).
		Int("failed", report.Failed).
		Msg("Registration run complete")

	return report, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
