package promise

import (
	"context"
	"time"

	"github.com/agentstation/promise/internal/persistence"
	"github.com/agentstation/promise/internal/sources/archive"
	"github.com/agentstation/promise/internal/sources/openlibrary"
	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/reconcile"
	"github.com/agentstation/promise/pkg/register"
)

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	dataDir         string
	backend         persistence.Backend
	batchSize       int
	excludePrefixes []string
	clock           func() time.Time
	wait            func(ctx context.Context, d time.Duration) error

	openLibrary openlibrary.Config
	archive     archive.Config
	transport   []transport.Option

	store      persistence.Store
	lister     Lister
	querier    reconcile.Querier
	registerer register.Registerer
}

func defaults() *options {
	return &options{
		dataDir:         constants.DefaultDataDir,
		backend:         persistence.BackendYAML,
		batchSize:       constants.DefaultBatchSize,
		excludePrefixes: constants.VendorPrefixes,
		clock:           func() time.Time { return time.Now().UTC() },
		openLibrary:     openlibrary.DefaultConfig(),
		archive:         archive.DefaultConfig(),
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) palletOptions() []pallets.Option {
	return []pallets.Option{
		pallets.WithClock(o.clock),
		pallets.WithExcludePrefixes(o.excludePrefixes...),
	}
}

// WithDataDir configures where snapshots and exports are written.
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.NewValidationError("data_dir", dir, "must not be empty")
		}
		o.dataDir = dir
		return nil
	}
}

// WithBackend configures the snapshot backend (yaml, json or sqlite).
func WithBackend(backend persistence.Backend) Option {
	return func(o *options) error {
		o.backend = backend
		return nil
	}
}

// WithStore configures an already opened snapshot store. The client does not
// close stores it did not open.
func WithStore(store persistence.Store) Option {
	return func(o *options) error {
		o.store = store
		return nil
	}
}

// WithBatchSize configures how many ISBNs are sent per catalog query.
func WithBatchSize(size int) Option {
	return func(o *options) error {
		if size <= 0 || size > constants.MaxBatchSize {
			return errors.NewValidationError("batch_size", size, "must be between 1 and 500")
		}
		o.batchSize = size
		return nil
	}
}

// WithExcludePrefixes configures identifier prefixes dropped when a pallet is created.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(o *options) error {
		o.excludePrefixes = prefixes
		return nil
	}
}

// WithClock configures the time source for pallet timestamps and exports.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock == nil {
			return errors.NewValidationError("clock", nil, "must not be nil")
		}
		o.clock = clock
		return nil
	}
}

// WithRegistrationWait configures how the pause between registration
// requests is performed (useful for tests).
func WithRegistrationWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) error {
		o.wait = wait
		return nil
	}
}

// WithOpenLibrary configures the catalog endpoints.
func WithOpenLibrary(cfg openlibrary.Config) Option {
	return func(o *options) error {
		o.openLibrary = cfg
		return nil
	}
}

// WithArchive configures the listing endpoints.
func WithArchive(cfg archive.Config) Option {
	return func(o *options) error {
		o.archive = cfg
		return nil
	}
}

// WithTransport configures the HTTP clients built for the default services.
func WithTransport(opts ...transport.Option) Option {
	return func(o *options) error {
		o.transport = append(o.transport, opts...)
		return nil
	}
}

// WithLister replaces the pallet listing service.
func WithLister(l Lister) Option {
	return func(o *options) error {
		o.lister = l
		return nil
	}
}

// WithQuerier replaces the catalog lookup service.
func WithQuerier(q reconcile.Querier) Option {
	return func(o *options) error {
		o.querier = q
		return nil
	}
}

// WithRegisterer replaces the catalog registration service.
func WithRegisterer(r register.Registerer) Option {
	return func(o *options) error {
		o.registerer = r
		return nil
	}
}
