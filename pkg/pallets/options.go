package pallets

import (
	"time"

	"github.com/agentstation/promise/pkg/constants"
)

// Option configures a Pallet.
type Option func(*options)

type options struct {
	clock           func() time.Time
	excludePrefixes []string
}

func defaults() *options {
	return &options{
		clock:           func() time.Time { return time.Now().UTC() },
		excludePrefixes: constants.VendorPrefixes,
	}
}

func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClock sets the time source used for the creation and update timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithExcludePrefixes drops identifiers starting with any of the prefixes when
// a pallet is created. Passing no prefixes keeps every identifier.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(o *options) {
		o.excludePrefixes = prefixes
	}
}
