// pkg/deps/manager.go

package deps

import (
	"context"
	"time"

	"github.com/afitler79-alt/xui-installer/pkg/execute"
	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/cenkalti/backoff/v4"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// installTimeout bounds a single package-manager operation. Downloads can
// legitimately take minutes; a hang must still become a step failure.
const installTimeout = 10 * time.Minute

// aptLockWait bounds how long the resolver waits for unattended-upgrades
// or another apt to release the dpkg locks.
const aptLockWait = 2 * time.Minute

// manager is a platform package-manager strategy.
type manager interface {
	// prepare runs once before the first install (lock waits, index refresh).
	prepare(ctx context.Context, run Runner) error
	install(ctx context.Context, run Runner, packages []string) error
}

func (r *Resolver) manager() (manager, error) {
	switch r.target.OSFamily {
	case platform.Linux:
		if r.target.DistroHint == "rhel" {
			return dnfManager{}, nil
		}
		return aptManager{skipLockWait: r.skipAptWait}, nil
	case platform.Windows:
		return wingetManager{}, nil
	default:
		return nil, cerr.Newf("no package manager for os family %q", r.target.OSFamily)
	}
}

type aptManager struct {
	skipLockWait bool
}

func (m aptManager) prepare(ctx context.Context, run Runner) error {
	if !m.skipLockWait {
		if err := waitForAptLocks(ctx, run); err != nil {
			return err
		}
	}
	_, err := run(ctx, execute.Options{
		Command: "apt-get",
		Args:    []string{"update", "-q"},
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Timeout: installTimeout,
	})
	return cerr.Wrap(err, "apt-get update")
}

func (m aptManager) install(ctx context.Context, run Runner, packages []string) error {
	args := append([]string{"install", "-y", "-q"}, packages...)
	_, err := run(ctx, execute.Options{
		Command: "apt-get",
		Args:    args,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Timeout: installTimeout,
	})
	return err
}

// waitForAptLocks polls the dpkg/apt lock files with exponential backoff
// until no process holds them. unattended-upgrades commonly holds the lock
// for a minute or two right after boot.
func waitForAptLocks(ctx context.Context, run Runner) error {
	log := otelzap.Ctx(ctx)

	locks := []string{
		"/var/lib/dpkg/lock-frontend",
		"/var/lib/dpkg/lock",
		"/var/lib/apt/lists/lock",
	}

	op := func() error {
		// fuser exits 0 when a process holds the file; that means retry.
		_, err := run(ctx, execute.Options{
			Command: "fuser",
			Args:    locks,
			Capture: true,
			Timeout: 10 * time.Second,
		})
		if err == nil {
			log.Info("apt/dpkg locks are held, waiting")
			return cerr.New("apt locks held")
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = aptLockWait

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return cerr.Wrap(err, "timed out waiting for apt/dpkg locks")
	}
	return nil
}

type dnfManager struct{}

func (dnfManager) prepare(ctx context.Context, run Runner) error {
	_, err := run(ctx, execute.Options{
		Command: "dnf",
		Args:    []string{"makecache", "-q"},
		Timeout: installTimeout,
	})
	return cerr.Wrap(err, "dnf makecache")
}

func (dnfManager) install(ctx context.Context, run Runner, packages []string) error {
	args := append([]string{"install", "-y", "-q"}, packages...)
	_, err := run(ctx, execute.Options{
		Command: "dnf",
		Args:    args,
		Timeout: installTimeout,
	})
	return err
}

type wingetManager struct{}

func (wingetManager) prepare(ctx context.Context, run Runner) error {
	return nil
}

func (wingetManager) install(ctx context.Context, run Runner, packages []string) error {
	// winget installs one identifier per invocation.
	for _, pkg := range packages {
		_, err := run(ctx, execute.Options{
			Command: "winget",
			Args: []string{
				"install", "--silent", "--exact", "--id", pkg,
				"--accept-package-agreements", "--accept-source-agreements",
			},
			Timeout: installTimeout,
		})
		if err != nil {
			return cerr.Wrapf(err, "winget install %s", pkg)
		}
		otelzap.Ctx(ctx).Info("winget package installed", zap.String("id", pkg))
	}
	return nil
}
