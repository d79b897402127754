package remediate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is the name of the lock file created in the lock directory.
const LockFile = "checkport-remediate.lock"

// ErrLocked is returned when another remediation session holds the lock.
var ErrLocked = errors.New("another remediation session is running")

// Lock is a held remediation lock.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the host-wide remediation lock in dir without waiting.
// An empty dir means the system temporary directory.
func AcquireLock(dir string) (*Lock, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, LockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire remediation lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Release drops the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
