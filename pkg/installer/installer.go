// pkg/installer/installer.go

// Package installer sequences the provisioning steps that take a machine
// from nothing-installed to kiosk-shell-running-under-supervision. Steps
// run strictly in order because each depends on the side effects of the
// previous one; every step is idempotent, so re-running from the start is
// always safe.
package installer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/afitler79-alt/xui-installer/pkg/deps"
	"github.com/afitler79-alt/xui-installer/pkg/lockfile"
	"github.com/afitler79-alt/xui-installer/pkg/normalize"
	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/privilege"
	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/afitler79-alt/xui-installer/pkg/svcreg"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Version is stamped by the build; recorded in the install state.
var Version = "dev"

// ServiceName keys the autostart registration. Deterministic so re-install
// always finds the same entry.
const ServiceName = "xui-kiosk"

// Step identifies one orchestrator state.
type Step string

const (
	StepDetect            Step = "detect"
	StepNormalize         Step = "normalize"
	StepResolveDeps       Step = "resolve-deps"
	StepRegisterService   Step = "register-service"
	StepScopePrivilege    Step = "scope-privilege"
	StepUnregisterService Step = "unregister-service"
	StepRevokePrivilege   Step = "revoke-privilege"
)

// Outcome is the final report of one orchestrator run. It is produced
// exactly once, never partially.
type Outcome struct {
	Success     bool
	FailedStep  Step
	Remediation string
}

// KioskPaths names the opaque startup scripts supplied by packaging. The
// service registration and the elevation rule are both derived from this
// one value, so the allowed-command set can never drift from what the
// service actually runs.
type KioskPaths struct {
	StartScript string // generic start script, the service entry point
	Dashboard   string // dashboard launcher invoked by the supervisor
}

// Commands returns the elevation-rule command set.
func (k KioskPaths) Commands() []string {
	return []string{k.StartScript, k.Dashboard}
}

// All returns every script the normalizer must fix before execution.
func (k KioskPaths) All() []string {
	return []string{k.StartScript, k.Dashboard}
}

// Options configures one run. Flags modify behavior without changing the
// state machine shape.
type Options struct {
	Paths           KioskPaths
	NonInteractive  bool
	SkipAptWait     bool
	Branch          string
	EnableAutostart bool
	RunAt           svcreg.RunAt
	WithExtras      bool

	StepTimeout time.Duration // per step; ResolveDeps uses DepsTimeout
	DepsTimeout time.Duration
	LockPath    string
}

func (o *Options) applyDefaults(stateDir string) {
	if o.RunAt == "" {
		o.RunAt = svcreg.RunAtLogin
	}
	if o.StepTimeout <= 0 {
		o.StepTimeout = time.Minute
	}
	if o.DepsTimeout <= 0 {
		o.DepsTimeout = 15 * time.Minute
	}
	if o.LockPath == "" {
		o.LockPath = filepath.Join(stateDir, "installer.lock")
	}
}

// Installer wires the provisioning components. Every collaborator is a
// function field so tests can run the state machine against fakes.
type Installer struct {
	opts  Options
	store *state.Store

	detect      func() (platform.InstallTarget, error)
	normalize   func(ctx context.Context, target platform.InstallTarget, paths []string) ([]string, error)
	resolve     func(ctx context.Context, target platform.InstallTarget) error
	register    func(ctx context.Context, reg svcreg.Registration) (bool, error)
	scope       func(ctx context.Context, rule privilege.Rule) error
	unregister  func(ctx context.Context, name string) error
	revoke      func(ctx context.Context, userName string) error
	acquireLock func(path string) (*lockfile.Lock, error)
	confirm     func() (bool, error)
	currentUser func() (string, error)
}

// New builds an installer against the real host.
func New(opts Options, store *state.Store) *Installer {
	opts.applyDefaults(store.Dir)

	registrar := svcreg.NewRegistrar(store.Dir, nil)
	scoper := privilege.NewScoper("", nil)

	inst := &Installer{
		opts:      opts,
		store:     store,
		detect:    platform.Detect,
		normalize: normalize.Run,
		resolve: func(ctx context.Context, target platform.InstallTarget) error {
			ropts := []deps.Option{deps.WithRecorder(store.RecordPackage)}
			if opts.SkipAptWait {
				ropts = append(ropts, deps.WithSkipAptWait())
			}
			r := deps.NewResolver(target, ropts...)
			return r.Resolve(ctx, deps.Catalog(target, opts.WithExtras))
		},
		register:    registrar.Upsert,
		scope:       scoper.Apply,
		unregister:  registrar.Remove,
		revoke:      scoper.Revoke,
		acquireLock: lockfile.Acquire,
		confirm:     confirmOnTerminal,
		currentUser: currentUserName,
	}
	return inst
}

// Install runs the install state machine:
// Start -> Detect -> Normalize -> ResolveDeps -> RegisterService ->
// ScopePrivilege -> Done, with any step transitioning to Failed on
// unrecoverable error.
func (i *Installer) Install(rc *xui_io.RuntimeContext) (Outcome, error) {
	log := rc.Log

	// Detect is a pure read; it must fail before any mutation so an
	// unsupported host is left completely untouched.
	var target platform.InstallTarget
	if err := i.runStep(rc, StepDetect, i.opts.StepTimeout, func(ctx context.Context) error {
		var err error
		target, err = i.detect()
		return err
	}); err != nil {
		return i.failed(rc, StepDetect, err)
	}
	log.Info("Platform detected",
		zap.String("os", string(target.OSFamily)),
		zap.String("arch", string(target.Arch)),
		zap.String("distro", target.DistroHint))

	if !i.opts.NonInteractive {
		ok, err := i.confirm()
		if err != nil {
			return i.failed(rc, StepDetect, xui_err.NewExpectedError(rc.Ctx, err))
		}
		if !ok {
			err := xui_err.NewUserError("installation declined")
			return i.failed(rc, StepDetect, err)
		}
	}

	// Everything past this point mutates shared host state.
	lock, err := i.acquireLock(i.opts.LockPath)
	if err != nil {
		return i.failed(rc, StepDetect, err)
	}
	defer func() { _ = lock.Release() }()

	if i.opts.Branch != "" {
		if err := i.store.SaveChannel(state.Channel{Branch: i.opts.Branch}); err != nil {
			log.Warn("Failed to persist update channel", zap.Error(err))
		}
	}

	if err := i.runStep(rc, StepNormalize, i.opts.StepTimeout, func(ctx context.Context) error {
		changed, err := i.normalize(ctx, target, i.opts.Paths.All())
		if err == nil && len(changed) > 0 {
			log.Info("Scripts normalized", zap.Strings("changed", changed))
		}
		return err
	}); err != nil {
		return i.failed(rc, StepNormalize, err)
	}

	if err := i.runStep(rc, StepResolveDeps, i.opts.DepsTimeout, func(ctx context.Context) error {
		return i.resolve(ctx, target)
	}); err != nil {
		return i.failed(rc, StepResolveDeps, err)
	}

	if err := i.runStep(rc, StepRegisterService, i.opts.StepTimeout, func(ctx context.Context) error {
		_, err := i.register(ctx, i.registration())
		return err
	}); err != nil {
		return i.failed(rc, StepRegisterService, err)
	}

	// The elevation rule names exactly the scripts the service points at;
	// both derive from the same KioskPaths value.
	if target.OSFamily != platform.Windows {
		if err := i.runStep(rc, StepScopePrivilege, i.opts.StepTimeout, func(ctx context.Context) error {
			userName, err := i.currentUser()
			if err != nil {
				return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "resolve current user"))
			}
			return i.scope(ctx, privilege.Rule{
				User:     userName,
				Commands: i.opts.Paths.Commands(),
			})
		}); err != nil {
			return i.failed(rc, StepScopePrivilege, err)
		}
	}

	if err := i.store.SaveUpdateState(state.UpdateState{
		InstalledAt:      time.Now().UTC(),
		InstallerVersion: Version,
	}); err != nil {
		log.Warn("Failed to record install state", zap.Error(err))
	}

	log.Info("Install complete",
		zap.String("service", ServiceName),
		zap.String("run_at", string(i.opts.RunAt)))
	return Outcome{Success: true}, nil
}

// registration derives the desired autostart entry from the options.
func (i *Installer) registration() svcreg.Registration {
	return svcreg.Registration{
		Name:        ServiceName,
		DisplayName: "XUI Kiosk Shell",
		Description: "Starts the XUI kiosk shell supervisor",
		ExecPath:    i.opts.Paths.StartScript,
		Args:        []string{"--dashboard", i.opts.Paths.Dashboard},
		RunAt:       i.opts.RunAt,
		Enabled:     i.opts.EnableAutostart,
	}
}

// runStep executes fn under a per-step timeout. A timeout is the step's
// failure, classified under the step's own category, not a hang.
func (i *Installer) runStep(rc *xui_io.RuntimeContext, step Step, timeout time.Duration, fn func(ctx context.Context) error) error {
	rc.Log.Info("Step starting", zap.String("step", string(step)))

	ctx, cancel := context.WithTimeout(rc.Ctx, timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = classify(step, cerr.Wrapf(err, "step %s timed out after %s", step, timeout))
	}
	if err != nil {
		rc.Log.Error("Step failed", zap.String("step", string(step)), zap.Error(err))
		return classify(step, err)
	}
	rc.Log.Info("Step complete", zap.String("step", string(step)))
	return nil
}

// classify wraps unclassified step failures into the step's error
// category so exit codes stay distinct per failed step.
func classify(step Step, err error) error {
	var ce *xui_err.ClassifiedError
	if errors.As(err, &ce) || xui_err.IsExpectedUserError(err) {
		return err
	}
	switch step {
	case StepDetect:
		return &xui_err.ClassifiedError{
			Category: xui_err.CategoryPlatform,
			Message:  "platform detection failed",
			Cause:    err,
		}
	case StepResolveDeps:
		return &xui_err.ClassifiedError{
			Category: xui_err.CategoryDependency,
			Message:  "dependency resolution failed",
			Cause:    err,
		}
	case StepRegisterService, StepUnregisterService:
		return &xui_err.ClassifiedError{
			Category: xui_err.CategoryService,
			Message:  fmt.Sprintf("service step %s failed", step),
			Cause:    err,
		}
	case StepScopePrivilege, StepRevokePrivilege:
		return &xui_err.ClassifiedError{
			Category: xui_err.CategoryPrivilege,
			Message:  fmt.Sprintf("privilege step %s failed", step),
			Cause:    err,
		}
	default:
		return err
	}
}

// failed builds the terminal Failed outcome. The orchestrator never
// retries on its own; re-invoking install is the retry entry point.
func (i *Installer) failed(rc *xui_io.RuntimeContext, step Step, err error) (Outcome, error) {
	outcome := Outcome{
		Success:     false,
		FailedStep:  step,
		Remediation: xui_err.RemediationOf(err),
	}
	if outcome.Remediation == "" {
		outcome.Remediation = "re-run install; completed steps are skipped"
	}
	return outcome, err
}

func confirmOnTerminal() (bool, error) {
	fmt.Fprint(os.Stderr, "Install the XUI kiosk shell on this machine? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, cerr.Wrap(err, "read confirmation")
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func currentUserName() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	// On sudo, scope the rule to the invoking user, not root.
	if u.Uid == "0" {
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			return sudoUser, nil
		}
	}
	return u.Username, nil
}
