package promise

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/promise/internal/sources/archive"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/logging"
	"github.com/agentstation/promise/pkg/run"
)

// palletFunc processes one selected pallet and reports what happened to it.
type palletFunc func(ctx context.Context, loc archive.Locator) *run.PalletResult

// execute runs fn over the pallets selected by options. Pallet failures are
// recorded and the run moves on unless FailFast is set. Cancellation stops
// the run. The returned error is non-nil when any pallet failed.
func (c *client) execute(ctx context.Context, operation string, options *run.Options, fn palletFunc) (*run.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Validate options
	if err := options.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	// Step 3: One run at a time, snapshots are mutated in place
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := logging.FromContext(ctx).With().Str("operation", operation).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	// Step 4: Select pallets
	locators, err := c.locate(ctx, options)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("pallets", len(locators)).Bool("dry_run", options.DryRun).Msg("Starting run")

	// Step 5: Process each pallet
	result := &run.Result{DryRun: options.DryRun}
	for _, loc := range locators {
		if err := ctx.Err(); err != nil {
			return result, errors.WrapCanceled(operation, err)
		}

		pr := fn(logging.WithPallet(ctx, loc.Name), loc)
		result.Pallets = append(result.Pallets, pr)

		switch {
		case pr.Status != run.StatusFailed:
			logger.Info().Str("pallet", pr.Pallet).Str("status", string(pr.Status)).Msg(pr.Line())
		case errors.IsCanceled(pr.Err):
			return result, pr.Err
		default:
			logger.Error().Err(pr.Err).Str("pallet", pr.Pallet).Msg("Pallet failed")
			if options.FailFast {
				return result, pr.Err
			}
		}
	}

	// Step 6: Aggregate failures
	if failed := result.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, pr := range failed {
			names[i] = pr.Pallet
		}
		return result, errors.WrapResource(operation, "pallets", strings.Join(names, ","),
			fmt.Errorf("%d of %d pallets failed: %w", len(failed), len(result.Pallets), failed[0].Err))
	}

	logger.Info().Msg(result.Summary())
	return result, nil
}

// locate resolves explicit targets, or asks the lister for the newest pallets.
func (c *client) locate(ctx context.Context, options *run.Options) ([]archive.Locator, error) {
	if len(options.Targets) > 0 {
		locators := make([]archive.Locator, 0, len(options.Targets))
		for _, target := range options.Targets {
			loc := c.lister.Locate(target)
			if loc.Name == "" {
				return nil, errors.NewValidationError("target", target, "does not name a pallet")
			}
			locators = append(locators, loc)
		}
		return locators, nil
	}

	locators, err := c.lister.Latest(ctx, options.Count)
	if err != nil {
		return nil, errors.WrapResource("list", "pallets", "latest", err)
	}
	return locators, nil
}

// fail records err on pr and returns it.
func fail(pr *run.PalletResult, err error) *run.PalletResult {
	pr.Status = run.StatusFailed
	pr.Err = err
	return pr
}
