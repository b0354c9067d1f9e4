package promise

import (
	"context"
	"fmt"

	"github.com/agentstation/promise/internal/sources/archive"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/logging"
	"github.com/agentstation/promise/pkg/register"
	"github.com/agentstation/promise/pkg/run"
)

// AddMissing implements Registrar.
//
// Only pallets with a stored snapshot are registered; the others are skipped
// with a note to run a check first. The snapshot is saved after the
// registration run, including a canceled one, so completed attempts are kept.
func (c *client) AddMissing(ctx context.Context, opts ...run.Option) (*run.Result, error) {
	options := run.New(opts...)
	return c.execute(ctx, "add-missing", options, func(ctx context.Context, loc archive.Locator) *run.PalletResult {
		return c.addMissingPallet(ctx, loc, options)
	})
}

func (c *client) addMissingPallet(ctx context.Context, loc archive.Locator, options *run.Options) *run.PalletResult {
	logger := logging.FromContext(ctx)
	pr := &run.PalletResult{Pallet: loc.Name}

	p, found, err := c.store.Load(ctx, loc.Name)
	if err != nil {
		return fail(pr, errors.WrapResource("load", "pallet", loc.Name, err))
	}
	if !found {
		logger.Warn().Msg("No snapshot for pallet, run check first")
		pr.Status = run.StatusSkipped
		pr.Note = "no snapshot, run check first"
		return pr
	}
	if !p.Queried() {
		logger.Warn().Msg("Pallet was never reconciled, run check first")
		pr.Status = run.StatusSkipped
		pr.Note = "never reconciled, run check first"
		return pr
	}

	if options.DryRun {
		misses, err := p.Misses()
		if err != nil {
			return fail(pr, err)
		}
		pending := 0
		for _, item := range misses {
			if !options.SkipAttempted || !item.RegistrationAttempted {
				pending++
			}
		}
		pr.Note = fmt.Sprintf("would request registration of %d items", pending)
		return done(pr, p)
	}

	report, regErr := c.driver.RegisterMisses(ctx, p, register.Options{
		Delay:         options.Delay,
		SkipAttempted: options.SkipAttempted,
	})
	pr.Registration = report

	if report != nil {
		// Context may already be canceled; keep the attempts made so far.
		saveCtx := context.WithoutCancel(ctx)
		if err := c.save(saveCtx, p); err != nil {
			return fail(pr, err)
		}
		pr.Saved = true
	}

	if regErr != nil {
		return fail(pr, regErr)
	}
	return done(pr, p)
}
