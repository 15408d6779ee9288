// pkg/lockfile/lockfile.go

// Package lockfile serializes installer runs on one machine. The elevation
// rule and service registration are shared host state; two installers
// racing on them is never allowed, so the second acquirer fails fast.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	cerr "github.com/cockroachdb/errors"
)

// errHeld is returned by the platform acquire when another process holds
// the lock.
var errHeld = cerr.New("lock held")

// Lock is an acquired installer lock. Release it when the run finishes; on
// unix the kernel also releases it if the process dies, and on windows a
// file left by a dead holder is broken by the next acquire.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes the exclusive installer lock at path, creating parent
// directories as needed. A held lock yields AlreadyRunningError naming the
// holder PID when readable.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, cerr.Wrapf(err, "create lock dir for %s", path)
	}

	file, err := acquireExclusive(path)
	if err != nil {
		if cerr.Is(err, errHeld) {
			return nil, xui_err.NewAlreadyRunningError(path, readHolderPID(path))
		}
		return nil, cerr.Wrapf(err, "acquire lock %s", path)
	}

	// Record the holder for diagnostics; the OS-level lock is authoritative.
	if err := file.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(file, "%d\n%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock. Safe to call multiple times.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := releaseExclusive(l.path, l.file)
	l.file = nil
	return err
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

func readHolderPID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.SplitN(string(data), "\n", 2)
	return strings.TrimSpace(lines[0])
}
