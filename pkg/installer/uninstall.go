// pkg/installer/uninstall.go

package installer

import (
	"context"

	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	"go.uber.org/zap"
)

// Uninstall runs the uninstall state machine:
// Start -> UnregisterService -> RevokePrivilege -> Done.
// It is independent of install state and callable even when install never
// completed: whatever partial state exists is cleaned up, and cleaning up
// nothing is success, not an error.
func (i *Installer) Uninstall(rc *xui_io.RuntimeContext) (Outcome, error) {
	log := rc.Log

	lock, err := i.acquireLock(i.opts.LockPath)
	if err != nil {
		return i.failed(rc, StepUnregisterService, err)
	}
	defer func() { _ = lock.Release() }()

	if err := i.runStep(rc, StepUnregisterService, i.opts.StepTimeout, func(ctx context.Context) error {
		return i.unregister(ctx, ServiceName)
	}); err != nil {
		return i.failed(rc, StepUnregisterService, err)
	}

	if err := i.runStep(rc, StepRevokePrivilege, i.opts.StepTimeout, func(ctx context.Context) error {
		userName, err := i.currentUser()
		if err != nil {
			// No resolvable user means no rule was ever written for one.
			log.Warn("Could not resolve user for privilege revocation", zap.Error(err))
			return nil
		}
		return i.revoke(ctx, userName)
	}); err != nil {
		return i.failed(rc, StepRevokePrivilege, err)
	}

	if err := i.store.Clear(); err != nil {
		log.Warn("Failed to clear install state", zap.Error(err))
	}

	log.Info("Uninstall complete")
	return Outcome{Success: true}, nil
}
