// Package lockfile serializes automation runs through a filesystem token.
//
// The token's existence is the lock: every scheduled invocation shares one
// well-known path, so overlapping runs never interleave. Release removes the
// token unconditionally and is deferred right after a successful Acquire so
// it runs on every exit path.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrAlreadyLocked is returned by Acquire when the token already exists,
// meaning another run holds the lock.
var ErrAlreadyLocked = errors.New("lock already held")

// Lock is a held filesystem lock.
type Lock struct {
	path string

	mu       sync.Mutex
	released bool
}

// Acquire creates the lock token at path, failing with ErrAlreadyLocked if
// it exists. Parent directories are created as needed.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyLocked, path)
		}
		return nil, fmt.Errorf("creating lock token: %w", err)
	}

	// Content is informational only; existence is what matters.
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return &Lock{path: path}, nil
}

// Release removes the lock token. It is idempotent, and a missing token is
// not an error: the lock is gone either way.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}
	l.released = true

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock token: %w", err)
	}
	return nil
}
