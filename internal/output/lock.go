// lock.go guards an output directory with an advisory lock file.

package output

import (
	"errors"
	"fmt"
	"os"

	"tools.zach/dev/sharecard/internal/paths"
)

// ErrLocked reports that another generator run holds the directory lock.
var ErrLocked = errors.New("output directory is locked by another sharecard run")

// Lock is an exclusive advisory lock on an output directory.
type Lock struct {
	f *os.File
}

// lockAttempts bounds how often Acquire reopens a lock file that was
// removed between opening and locking it.
const lockAttempts = 3

// Acquire creates dir if needed and takes its lock without blocking. It
// returns an error wrapping [ErrLocked] if another process holds it.
func Acquire(dir paths.OutputDir) (*Lock, error) {
	if err := os.MkdirAll(dir.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := dir.Lock()
	for range lockAttempts {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}
		if err := lockFile(f); err != nil {
			f.Close()
			if isContended(err) {
				return nil, fmt.Errorf("%w: %s", ErrLocked, dir.Root)
			}
			return nil, err
		}
		// A run releasing between our open and lock removes the file we
		// now hold; lock whatever is at path instead.
		if !current(f, path) {
			f.Close()
			continue
		}
		fmt.Fprintf(f, "%d\n", os.Getpid())
		return &Lock{f: f}, nil
	}
	return nil, fmt.Errorf("lock file %s kept changing while locking", path)
}

// current reports whether f is still the file at path.
func current(f *os.File, path string) bool {
	held, err := f.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() error {
	name := l.f.Name()
	// Remove while still holding the lock. A run that opened the old file
	// before this point notices in Acquire that it no longer matches path.
	os.Remove(name)
	if err := unlockFile(l.f); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
