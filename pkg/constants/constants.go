// Package constants provides shared constants used throughout the promise codebase.
// This includes timeouts, batch and result limits, pacing delays, file permissions,
// and the default remote endpoints that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the catalog and listing services
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 30 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after an error or signal
	ShutdownTimeout = 5 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define batch sizes, result limits and retry counts
const (
	// DefaultBatchSize is the number of ISBNs sent to the catalog in one search query
	DefaultBatchSize = 100

	// MaxBatchSize keeps search query URLs within the catalog's request line limits
	MaxBatchSize = 500

	// DefaultResultLimit is the number of documents requested per search query.
	// A query whose numFound exceeds this limit is rejected as unreliable.
	DefaultResultLimit = 1000

	// MaxRetries is the maximum number of retry attempts for transient HTTP failures
	MaxRetries = 3

	// DefaultListingCount is the number of most recent pallets checked when none is named
	DefaultListingCount = 1
)

// Pacing constants
const (
	// DefaultRegistrationDelay is the wait between consecutive registration requests
	DefaultRegistrationDelay = 500 * time.Millisecond
)

// Default values
const (
	// DefaultDataDir is where snapshots and miss exports are written
	DefaultDataDir = "./data"

	// DefaultStore is the default snapshot backend
	DefaultStore = "yaml"

	// DefaultUserAgent identifies this tool to remote services
	DefaultUserAgent = "promise-items/1.0 (+https://github.com/agentstation/promise)"

	// LockFileName is the run lock created inside the data directory
	LockFileName = ".promise.lock"

	// SQLiteFileName is the database file used by the sqlite store
	SQLiteFileName = "pallets.db"

	// MissesFileSuffix is appended to a pallet name for its original-miss export
	MissesFileSuffix = "_misses.tsv"
)

// VendorPrefixes are identifier prefixes excluded when a pallet is created from a listing.
// They are vendor stock codes rather than ISBNs and can never match a catalog record.
var VendorPrefixes = []string{"BWB"}

// Remote endpoint constants
const (
	// OpenLibraryURL is the base URL of the Open Library catalog
	OpenLibraryURL = "https://openlibrary.org"

	// ArchiveURL is the base URL of the Internet Archive listing and metadata APIs
	ArchiveURL = "https://archive.org"

	// PromiseCollection is the archive.org collection holding pallet items
	PromiseCollection = "protodonationitems"
)

// Format constants
const (
	// TimeFormatExport is the timestamp layout used in miss-export rows
	TimeFormatExport = "2006-01-02_15:04:05"

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
