// Package app provides the application context and dependency management
// for the promise CLI: configuration, logging, the lazily created client and
// command wiring.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/promise"
	"github.com/agentstation/promise/internal/appcontext"
	"github.com/agentstation/promise/internal/persistence"
	"github.com/agentstation/promise/internal/sources/archive"
	"github.com/agentstation/promise/internal/sources/openlibrary"
	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/run"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the promise application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu         sync.RWMutex
	client     promise.Client
	clientOpts []promise.Option
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Quiet reports whether --quiet was given.
func (a *App) Quiet() bool {
	return a.config.Quiet
}

// DataDir returns the configured data directory.
func (a *App) DataDir() string {
	return a.config.DataDir
}

// RunOptions returns run options taken from configuration.
func (a *App) RunOptions() []run.Option {
	return []run.Option{
		run.WithDelay(a.config.Delay),
		run.WithSkipAttempted(a.config.SkipAttempted),
	}
}

// Client returns the promise client, creating it lazily if needed.
func (a *App) Client() (promise.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := promise.New(append(a.clientOptions(), a.clientOpts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	return c, nil
}

// Shutdown releases the client and its store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []promise.Option {
	cfg := a.config
	opts := []promise.Option{
		promise.WithDataDir(cfg.DataDir),
		promise.WithBackend(persistence.Backend(cfg.Store)),
		promise.WithExcludePrefixes(cfg.ExcludePrefixes...),
		promise.WithOpenLibrary(openlibrary.Config{
			BaseURL:     cfg.OpenLibraryURL,
			ResultLimit: cfg.ResultLimit,
		}),
		promise.WithArchive(archive.Config{
			BaseURL:    cfg.ArchiveURL,
			Collection: constants.PromiseCollection,
		}),
		promise.WithTransport(
			transport.WithTimeout(cfg.HTTPTimeout),
			transport.WithUserAgent(cfg.UserAgent),
			transport.WithMaxRetries(cfg.MaxRetries),
		),
	}
	if cfg.BatchSize > 0 {
		opts = append(opts, promise.WithBatchSize(cfg.BatchSize))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(c promise.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithClientOptions appends options used when the client is created.
func WithClientOptions(opts ...promise.Option) Option {
	return func(a *App) error {
		a.clientOpts = append(a.clientOpts, opts...)
		return nil
	}
}
