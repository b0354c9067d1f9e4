package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
)

// Lock is an advisory lock on a data directory, held for the duration of a
// command that mutates snapshots.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes the data-directory lock without blocking. It fails with
// an error matching errors.ErrLocked when another process holds it.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	path := filepath.Join(dir, constants.LockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.WrapIO("lock", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, errors.ErrLocked)
	}
	return &Lock{lock: fl}, nil
}

// Path returns the lock file.
func (l *Lock) Path() string {
	return l.lock.Path()
}

// Release unlocks the data directory.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
