package promise

import (
	"context"

	"github.com/agentstation/promise/internal/export"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence gives read access to stored pallet snapshots.
type Persistence interface {
	// Pallet loads one snapshot by name
	Pallet(ctx context.Context, name string) (*pallets.Pallet, error)

	// Pallets loads every stored snapshot, ordered by name
	Pallets(ctx context.Context) ([]*pallets.Pallet, error)

	// ExportAll writes the original misses of every reconciled snapshot to path
	ExportAll(ctx context.Context, path string) (int, error)

	// DataDir returns the directory snapshots and exports live in
	DataDir() string
}

// Pallet implements Persistence.
func (c *client) Pallet(ctx context.Context, name string) (*pallets.Pallet, error) {
	p, ok, err := c.store.Load(ctx, name)
	if err != nil {
		return nil, errors.WrapResource("load", "pallet", name, err)
	}
	if !ok {
		return nil, errors.NewNotFoundError("pallet", name)
	}
	return p, nil
}

// Pallets implements Persistence.
func (c *client) Pallets(ctx context.Context) ([]*pallets.Pallet, error) {
	keys, err := c.store.List(ctx)
	if err != nil {
		return nil, errors.WrapResource("list", "snapshot", "", err)
	}

	all := make([]*pallets.Pallet, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled("load snapshots", err)
		}
		p, err := c.Pallet(ctx, key)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	return all, nil
}

// ExportAll implements Persistence. The destination must not exist.
func (c *client) ExportAll(ctx context.Context, path string) (int, error) {
	all, err := c.Pallets(ctx)
	if err != nil {
		return 0, err
	}
	return export.WriteAll(path, all, c.options.clock())
}

// DataDir implements Persistence.
func (c *client) DataDir() string {
	return c.options.dataDir
}
