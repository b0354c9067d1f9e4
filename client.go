// Package promise reconciles pallets of donated books against the Open
// Library catalog.
//
// A pallet is a batch of donated items listed in the Internet Archive's
// promise-item collection. Checking a pallet looks up every ISBN in the
// catalog, remembers which ones were missing the first time they were seen,
// saves the pallet snapshot and exports those original misses. Adding missing
// items asks the catalog to import every ISBN still absent; whether an import
// worked shows up on the next check.
//
// Example usage:
//
//	// Create a client with the default remote services and a YAML store in ./data
//	pc, err := promise.New(promise.WithDataDir("./data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pc.Close()
//
//	// Report every batch as it is answered
//	pc.OnBatchChecked(func(pallet string, done, total int) {
//	    log.Printf("%s: %d/%d", pallet, done, total)
//	})
//
//	// Check the latest pallet
//	result, err := pc.Check(ctx, run.WithCount(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
//
//	// Later: ask the catalog to import what was missing
//	_, err = pc.AddMissing(ctx, run.WithTargets("BWB-2022-09-22"))
package promise

import (
	"context"
	"sync"

	"github.com/agentstation/promise/internal/persistence"
	"github.com/agentstation/promise/internal/sources/archive"
	"github.com/agentstation/promise/internal/sources/openlibrary"
	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/reconcile"
	"github.com/agentstation/promise/pkg/register"
	"github.com/agentstation/promise/pkg/run"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Lister finds pallets and reads the identifiers recorded for them.
type Lister interface {
	Latest(ctx context.Context, count int) ([]archive.Locator, error)
	Locate(nameOrURL string) archive.Locator
	ISBNs(ctx context.Context, loc archive.Locator) ([]string, error)
}

// Checker runs reconciliation passes.
type Checker interface {
	// Check reconciles the selected pallets, creating snapshots for pallets
	// seen for the first time, then saves and exports them.
	Check(ctx context.Context, opts ...run.Option) (*run.Result, error)
}

// Registrar runs registration of missing items.
type Registrar interface {
	// AddMissing asks the catalog to import the misses of the selected pallets.
	AddMissing(ctx context.Context, opts ...run.Option) (*run.Result, error)
}

// Client manages pallet snapshots, reconciliation and registration.
type Client interface {
	// Checker reconciles pallets against the catalog
	Checker

	// Registrar registers missing items
	Registrar

	// Persistence provides access to stored snapshots
	Persistence

	// Hooks provides access to event callback registration
	Hooks

	// Close releases the snapshot store if the client opened it
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	lister   Lister
	store    persistence.Store
	engine   *reconcile.Engine
	driver   *register.Driver
	ownStore bool

	// mu serializes runs; snapshots are mutated in place.
	mu      sync.Mutex
	current string // pallet being reconciled, guarded by mu
	hooks   *hooks
}

// New creates a new Client with the given options. Collaborators that are
// not supplied are built from the default Open Library and Internet Archive
// configuration and a file store in the data directory.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{options: o, hooks: newHooks()}

	c.lister = o.lister
	if c.lister == nil {
		lister, err := archive.New(o.archive, transport.New(archive.ServiceName, o.transport...))
		if err != nil {
			return nil, errors.WrapResource("create", "lister", archive.ServiceName, err)
		}
		c.lister = lister
	}

	querier, registerer := o.querier, o.registerer
	if querier == nil || registerer == nil {
		ol, err := openlibrary.New(o.openLibrary, transport.New(openlibrary.ServiceName, o.transport...))
		if err != nil {
			return nil, errors.WrapResource("create", "catalog", openlibrary.ServiceName, err)
		}
		if querier == nil {
			querier = ol
		}
		if registerer == nil {
			registerer = ol
		}
	}

	c.store = o.store
	if c.store == nil {
		store, err := persistence.Open(persistence.Config{
			Dir:     o.dataDir,
			Backend: o.backend,
			Options: o.palletOptions(),
		})
		if err != nil {
			return nil, err
		}
		c.store = store
		c.ownStore = true
	}

	if c.engine, err = reconcile.New(querier,
		reconcile.WithBatchSize(o.batchSize),
		reconcile.WithClock(o.clock),
		reconcile.WithBatchHook(func(done, total int) {
			c.hooks.batchChecked(c.current, done, total)
		}),
	); err != nil {
		c.closeOwned()
		return nil, err
	}

	if c.driver, err = register.New(registerer,
		register.WithWait(o.wait),
		register.WithItemHook(c.hooks.itemRegistered),
	); err != nil {
		c.closeOwned()
		return nil, err
	}

	return c, nil
}

// Close implements Client.
func (c *client) Close() error {
	return c.closeOwned()
}

func (c *client) closeOwned() error {
	if c.ownStore && c.store != nil {
		return c.store.Close()
	}
	return nil
}

// newPallet creates a pallet with the client's clock and exclusion prefixes.
func (c *client) newPallet(loc archive.Locator, isbns []string) *pallets.Pallet {
	return pallets.New(loc.Name, loc.URL, isbns, c.options.palletOptions()...)
}
