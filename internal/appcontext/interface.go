// Package appcontext provides the application context interface shared by
// every command, so commands depend on an interface instead of the concrete
// app and can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/promise"
	"github.com/agentstation/promise/pkg/run"
)

// Interface defines what commands need from the application.
// The App struct from cmd/promise/app implements it.
type Interface interface {
	// Client returns the promise client, creating it lazily if needed.
	// It is safe for concurrent use and only one client is created.
	Client() (promise.Client, error)

	// RunOptions returns run options taken from configuration (registration
	// delay, skip-attempted). Commands append their flag options after these.
	RunOptions() []run.Option

	// DataDir returns the directory holding snapshots, exports and the run lock.
	DataDir() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Quiet reports whether progress and informational output is suppressed.
	Quiet() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
