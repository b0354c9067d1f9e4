// Package run provides options and results for check and add-missing runs.
package run

import (
	"time"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
)

// Options controls which pallets a run covers and how it behaves.
type Options struct {
	// Pallet selection
	Count   int      // Number of most recent pallets to process when no target is given
	Targets []string // Explicit pallet names or metadata URLs

	// Orchestration control
	DryRun   bool          // Reconcile without saving snapshots or writing exports
	FailFast bool          // Stop at the first pallet that fails instead of continuing
	Timeout  time.Duration // Timeout for the entire run

	// Check behavior
	Export bool // Write the original-miss export after a check

	// Registration behavior
	Delay         time.Duration // Wait between consecutive registration requests
	SkipAttempted bool          // Skip items a previous run already attempted
}

// Option is a function that configures run Options.
type Option func(*Options)

// Defaults returns the default run options.
func Defaults() *Options {
	return &Options{
		Count:         constants.DefaultListingCount,
		Export:        true,
		Delay:         constants.DefaultRegistrationDelay,
		SkipAttempted: true,
	}
}

// Apply applies the given options to the run options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New returns the defaults with opts applied.
func New(opts ...Option) *Options {
	return Defaults().Apply(opts...)
}

// Validate checks if the run options are valid.
func (o *Options) Validate() error {
	if len(o.Targets) == 0 && o.Count <= 0 {
		return &errors.ValidationError{
			Field:   "Count",
			Value:   o.Count,
			Message: "count must be positive when no pallet is named",
		}
	}
	if o.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   o.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if o.Delay < 0 {
		return &errors.ValidationError{
			Field:   "Delay",
			Value:   o.Delay,
			Message: "delay must be non-negative",
		}
	}
	return nil
}

// WithCount configures how many of the most recent pallets are processed.
func WithCount(count int) Option {
	return func(o *Options) {
		o.Count = count
	}
}

// WithTargets configures explicit pallets by name or metadata URL.
func WithTargets(targets ...string) Option {
	return func(o *Options) {
		o.Targets = targets
	}
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithFailFast configures fail-fast behavior.
func WithFailFast(failFast bool) Option {
	return func(o *Options) {
		o.FailFast = failFast
	}
}

// WithTimeout configures the run timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithExport configures whether original misses are exported after a check.
func WithExport(export bool) Option {
	return func(o *Options) {
		o.Export = export
	}
}

// WithDelay configures the wait between registration requests.
func WithDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.Delay = delay
	}
}

// WithSkipAttempted configures whether previously attempted items are skipped.
func WithSkipAttempted(skip bool) Option {
	return func(o *Options) {
		o.SkipAttempted = skip
	}
}
