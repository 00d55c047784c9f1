// Unix/Darwin file locking using flock(2).
//
// This file is compiled on all non-Windows platforms. It uses POSIX advisory
// locking via [unix.Flock] so two generator runs cannot write the same
// output directory at once.

//go:build !windows

package output

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ///////////////////////////////////////////////
// File Locking
// ///////////////////////////////////////////////

// lockFile acquires an exclusive, non-blocking advisory lock on f. LOCK_NB
// makes a held lock fail immediately with EWOULDBLOCK.
func lockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile releases the advisory flock held on f.
func unlockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}

func isContended(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK)
}
