// pkg/privilege/privilege.go

// Package privilege manages the least-privilege elevation rule that lets
// the kiosk startup scripts run without interactive authentication. One
// rule file per user, always overwritten whole, never appended: duplicate
// or conflicting sudoers entries are how machines get bricked.
package privilege

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/afitler79-alt/xui-installer/pkg/execute"
	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultRuleDir is where sudoers include files live.
const DefaultRuleDir = "/etc/sudoers.d"

// rulePerm is the installed permission. sudo refuses group/world-writable
// includes; 0440 is the conventional mode.
const rulePerm = 0o440

// tempPerm covers the pre-validation window: owner-only.
const tempPerm = 0o600

// Rule is a least-privilege elevation grant: the named user may run exactly
// these commands as root without a password.
type Rule struct {
	User     string
	Commands []string // absolute script paths
}

// Render produces the single sudoers line for the rule. Commands are
// emitted in sorted order so identical rules render identical bytes.
func (r Rule) Render() string {
	cmds := append([]string(nil), r.Commands...)
	sort.Strings(cmds)
	return fmt.Sprintf("%s ALL=(root) NOPASSWD: %s\n", r.User, strings.Join(cmds, ", "))
}

// Validate rejects rules that could not produce a safe sudoers line.
func (r Rule) Validate() error {
	if r.User == "" {
		return cerr.New("elevation rule has no user")
	}
	if len(r.Commands) == 0 {
		return cerr.New("elevation rule has no commands")
	}
	for _, cmd := range r.Commands {
		if !filepath.IsAbs(cmd) {
			return cerr.Newf("elevation rule command is not absolute: %q", cmd)
		}
		if strings.ContainsAny(cmd, ",:= \t\n") {
			return cerr.Newf("elevation rule command contains unsafe characters: %q", cmd)
		}
	}
	return nil
}

// Validator checks the syntax of a candidate rule file before it is
// installed. The default shells out to visudo.
type Validator func(ctx context.Context, path string) error

// VisudoValidator validates a candidate file with visudo -cf.
func VisudoValidator(ctx context.Context, path string) error {
	if !platform.IsCommandAvailable("visudo") {
		return cerr.New("visudo not found in PATH; install the sudo package")
	}
	_, err := execute.Run(ctx, execute.Options{
		Command: "visudo",
		Args:    []string{"-cf", path},
		Capture: true,
		Timeout: 30 * time.Second,
	})
	return err
}

// Scoper writes and revokes elevation rules in one sudoers.d directory.
type Scoper struct {
	Dir      string
	validate Validator
}

// NewScoper builds a scoper for dir, using visudo for validation. A nil
// validator argument selects the default.
func NewScoper(dir string, validate Validator) *Scoper {
	if dir == "" {
		dir = DefaultRuleDir
	}
	if validate == nil {
		validate = VisudoValidator
	}
	return &Scoper{Dir: dir, validate: validate}
}

// RulePath returns the rule file path for a user.
func (s *Scoper) RulePath(user string) string {
	return filepath.Join(s.Dir, "xui-"+user)
}

// Apply atomically installs the rule: write to a temp file with owner-only
// permissions, validate the syntax, tighten to the installed mode, then
// rename over the final path. A rule that fails validation is removed and
// the previous rule file, if any, is left untouched.
func (s *Scoper) Apply(ctx context.Context, rule Rule) error {
	log := otelzap.Ctx(ctx)

	// ASSESS - refuse structurally unsafe rules before touching disk.
	if err := rule.Validate(); err != nil {
		return xui_err.NewPrivilegeRuleError(err)
	}

	finalPath := s.RulePath(rule.User)
	log.Info("Scoping elevation rule",
		zap.String("path", finalPath),
		zap.Strings("commands", rule.Commands))

	// INTERVENE - write the candidate next to the final path so the rename
	// stays on one filesystem.
	tmp, err := os.CreateTemp(s.Dir, ".xui-rule-*")
	if err != nil {
		return xui_err.NewPrivilegeRuleError(cerr.Wrapf(err, "create temp rule in %s", s.Dir))
	}
	tmpPath := tmp.Name()
	rollback := func() {
		_ = os.Remove(tmpPath)
	}

	if err := tmp.Chmod(tempPerm); err != nil {
		_ = tmp.Close()
		rollback()
		return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "restrict temp rule permissions"))
	}
	if _, err := tmp.WriteString(rule.Render()); err != nil {
		_ = tmp.Close()
		rollback()
		return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "write temp rule"))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		rollback()
		return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "sync temp rule"))
	}
	if err := tmp.Close(); err != nil {
		rollback()
		return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "close temp rule"))
	}

	// EVALUATE - a syntactically invalid rule must never reach sudoers.d
	// under its final name.
	if err := s.validate(ctx, tmpPath); err != nil {
		rollback()
		log.Error("Elevation rule failed validation, rolled back",
			zap.String("candidate", tmpPath), zap.Error(err))
		return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "validate rule"))
	}

	if err := os.Chmod(tmpPath, rulePerm); err != nil {
		rollback()
		return xui_err.NewPrivilegeRuleError(cerr.Wrap(err, "set rule permissions"))
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		rollback()
		return xui_err.NewPrivilegeRuleError(cerr.Wrapf(err, "install rule at %s", finalPath))
	}

	log.Info("Elevation rule installed", zap.String("path", finalPath))
	return nil
}

// Revoke removes the user's rule file. A missing file is a no-op.
func (s *Scoper) Revoke(ctx context.Context, user string) error {
	path := s.RulePath(user)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return xui_err.NewPrivilegeRuleError(cerr.Wrapf(err, "remove rule %s", path))
	}
	otelzap.Ctx(ctx).Info("Elevation rule revoked", zap.String("path", path))
	return nil
}
