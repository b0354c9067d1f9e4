package promise

import (
	"context"

	"github.com/agentstation/promise/internal/export"
	"github.com/agentstation/promise/internal/sources/archive"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/isbn"
	"github.com/agentstation/promise/pkg/logging"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/run"
)

// Check implements Checker.
//
// For every selected pallet the stored snapshot is loaded, or created from
// the remote listing when the pallet has never been seen. The pallet is then
// reconciled, saved and its original misses exported. An export that already
// exists is left alone and noted on the result. Dry runs reconcile without
// saving or exporting.
func (c *client) Check(ctx context.Context, opts ...run.Option) (*run.Result, error) {
	options := run.New(opts...)
	return c.execute(ctx, "check", options, func(ctx context.Context, loc archive.Locator) *run.PalletResult {
		return c.checkPallet(ctx, loc, options)
	})
}

func (c *client) checkPallet(ctx context.Context, loc archive.Locator, options *run.Options) *run.PalletResult {
	logger := logging.FromContext(ctx)
	pr := &run.PalletResult{Pallet: loc.Name}

	// Load the prior snapshot, or create one from the listing
	p, found, err := c.store.Load(ctx, loc.Name)
	if err != nil {
		return fail(pr, errors.WrapResource("load", "pallet", loc.Name, err))
	}
	if !found {
		ids, err := c.lister.ISBNs(ctx, loc)
		if err != nil {
			return fail(pr, errors.WrapResource("list", "pallet", loc.Name, err))
		}
		p = c.newPallet(loc, isbn.Normalize(ids...).Sorted())
		pr.Created = true
		logger.Info().Int("listed", len(ids)).Int("items", p.Len()).Msg("Created pallet from listing")
	}

	// Reconcile against the catalog
	c.current = p.Name()
	res, err := c.engine.Reconcile(ctx, p)
	if err != nil {
		return fail(pr, err)
	}
	pr.Reconcile = res

	if options.DryRun {
		return done(pr, p)
	}

	// Persist the snapshot
	if err := c.save(ctx, p); err != nil {
		return fail(pr, err)
	}
	pr.Saved = true

	// Export original misses once
	if options.Export {
		path, err := export.WriteOriginalMisses(c.options.dataDir, p, c.options.clock())
		switch {
		case errors.IsAlreadyExists(err):
			pr.Note = "original misses already exported"
			logger.Debug().Str("path", export.MissesPath(c.options.dataDir, p.Name())).Msg("Export exists, leaving it untouched")
		case err != nil:
			return fail(pr, errors.WrapResource("export", "pallet", p.Name(), err))
		default:
			pr.Export = path
			logger.Info().Str("path", path).Int("original_misses", len(res.OriginalMisses)).Msg("Exported original misses")
		}
	}

	return done(pr, p)
}

// save persists p and notifies hooks.
func (c *client) save(ctx context.Context, p *pallets.Pallet) error {
	if err := c.store.Save(ctx, p.Name(), p); err != nil {
		return errors.WrapResource("save", "pallet", p.Name(), err)
	}
	c.hooks.palletSaved(p)
	return nil
}

// done marks pr done and attaches the pallet summary when one is available.
func done(pr *run.PalletResult, p *pallets.Pallet) *run.PalletResult {
	pr.Status = run.StatusDone
	if summary, err := p.Summary(); err == nil {
		pr.Summary = &summary
	}
	return pr
}
