// Package persistence stores pallet snapshots between runs.
//
// Snapshots are keyed by pallet name. Two backends are available: a file
// store writing one YAML or JSON document per pallet, and a SQLite store
// keeping every pallet in a single database.
package persistence

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/save"
)

// Compile-time interface checks.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Store loads and saves pallet snapshots.
type Store interface {
	// Load returns the pallet saved under key. A missing snapshot is
	// reported as (nil, false, nil); unreadable or invalid snapshots are errors.
	Load(ctx context.Context, key string) (*pallets.Pallet, bool, error)

	// Save replaces the snapshot stored under key.
	Save(ctx context.Context, key string, p *pallets.Pallet) error

	// List returns the stored keys in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// Backend names a store implementation.
type Backend string

// Backends.
const (
	BackendYAML   Backend = "yaml"
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Config selects and locates a store.
type Config struct {
	// Dir is the data directory
	Dir string

	// Backend is one of yaml, json, sqlite
	Backend Backend

	// Options are applied to every pallet the store decodes
	Options []pallets.Option
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = constants.DefaultDataDir
	}
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case "", BackendYAML:
		return NewFileStore(cfg.Dir, save.FormatYAML, cfg.Options...)
	case BackendJSON:
		return NewFileStore(cfg.Dir, save.FormatJSON, cfg.Options...)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(cfg.Dir, constants.SQLiteFileName), cfg.Options...)
	}
	return nil, errors.NewConfigError("store", "unknown backend "+string(cfg.Backend)+" (want yaml, json or sqlite)", nil)
}

// ValidateKey rejects keys that cannot name a snapshot file.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return errors.NewValidationError("key", key, "is required")
	case strings.ContainsAny(key, `/\`) || key == "." || key == "..":
		return errors.NewValidationError("key", key, "must not contain path separators")
	case strings.HasPrefix(key, "."):
		return errors.NewValidationError("key", key, "must not start with a dot")
	}
	return nil
}
