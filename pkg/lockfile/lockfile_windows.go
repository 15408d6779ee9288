//go:build windows

// pkg/lockfile/lockfile_windows.go
//
// Windows has no flock equivalent that releases on process death, so the
// lock is an exclusive-create file removed on release. A crash or interrupt
// never runs the deferred release, so a leftover file whose recorded holder
// is dead is broken on the next acquire.

package lockfile

import (
	"os"
	"strconv"
)

func acquireExclusive(path string) (*os.File, error) {
	for attempt := 0; ; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err == nil {
			return file, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if attempt > 0 || !holderIsDead(path) {
			return nil, errHeld
		}
		_ = os.Remove(path)
	}
}

// holderIsDead reports whether the PID recorded in the lock file no longer
// runs. An unreadable or unparsable file counts as live: the holder writes
// its PID just after the exclusive create, and that window must not look
// stale to a concurrent acquirer.
func holderIsDead(path string) bool {
	pid, err := strconv.Atoi(readHolderPID(path))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		// FindProcess opens a process handle here; failure means no such
		// process.
		return true
	}
	_ = proc.Release()
	return false
}

func releaseExclusive(path string, file *os.File) error {
	if err := file.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
