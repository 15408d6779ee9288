//go:build !windows

// pkg/lockfile/lockfile_unix.go
//
// flock(2) gives kernel-level locking that survives crashes: the lock
// releases automatically when the process dies, so no stale-lock cleanup
// logic is needed.

package lockfile

import (
	"os"
	"syscall"

	cerr "github.com/cockroachdb/errors"
)

func acquireExclusive(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, errHeld
		}
		return nil, cerr.Wrap(err, "flock")
	}
	return file, nil
}

func releaseExclusive(path string, file *os.File) error {
	// Closing the descriptor releases the flock even if the explicit
	// unlock fails. The lock file itself is left in place.
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	return file.Close()
}
