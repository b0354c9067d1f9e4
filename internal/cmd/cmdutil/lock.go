package cmdutil

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/promise/internal/persistence"
)

// WithLock runs fn while holding the data directory lock. It fails at once
// when another run holds the lock.
func WithLock(dir string, logger *zerolog.Logger, fn func() error) error {
	lock, err := persistence.AcquireLock(dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Str("path", lock.Path()).Msg("Failed to release lock")
		}
	}()
	logger.Debug().Str("path", lock.Path()).Msg("Acquired data directory lock")
	return fn()
}
