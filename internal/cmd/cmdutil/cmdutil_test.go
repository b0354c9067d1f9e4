package cmdutil

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/promise/internal/persistence"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/run"
)

func TestSelectionFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	flags := AddSelectionFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-n", "3", "--dry-run", "--timeout", "1m"}))

	opts := run.New(flags.Options(nil)...)
	assert.Equal(t, 3, opts.Count)
	assert.True(t, opts.DryRun)
	assert.False(t, opts.FailFast)
	assert.Equal(t, time.Minute, opts.Timeout)
	assert.Empty(t, opts.Targets)

	opts = run.New(flags.Options([]string{"pallet"})...)
	assert.Equal(t, []string{"pallet"}, opts.Targets)
}

func TestRegistrationFlagsOnlyOverrideWhenSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	flags := AddRegistrationFlags(cmd)
	require.NoError(t, cmd.ParseFlags(nil))

	configured := []run.Option{run.WithDelay(2 * time.Second), run.WithSkipAttempted(false)}
	opts := run.New(append(configured, flags.Options(cmd)...)...)
	assert.Equal(t, 2*time.Second, opts.Delay)
	assert.False(t, opts.SkipAttempted)

	require.NoError(t, cmd.ParseFlags([]string{"--delay", "0s"}))
	opts = run.New(append(configured, flags.Options(cmd)...)...)
	assert.Equal(t, time.Duration(0), opts.Delay)
}

func TestWithLock(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	err := WithLock(dir, &logger, func() error {
		held, err := persistence.AcquireLock(dir)
		if held != nil {
			_ = held.Release()
		}
		assert.ErrorIs(t, err, errors.ErrLocked)
		return nil
	})
	require.NoError(t, err)

	// Released afterwards.
	lock, err := persistence.AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}
