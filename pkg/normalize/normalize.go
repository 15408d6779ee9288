// pkg/normalize/normalize.go

// Package normalize prepares the kiosk startup scripts for execution. A
// script with Windows line endings breaks the interpreter line when invoked
// through a Unix shebang, so every script is normalized before anything
// registers or executes it.
package normalize

import (
	"bytes"
	"context"
	"os"

	"github.com/afitler79-alt/xui-installer/pkg/platform"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const unixExecMode = 0o755

// Run normalizes each existing file in paths: strips carriage returns and,
// on unix-like targets, sets the executable bit. Missing files are skipped.
// Returns the paths whose bytes or mode changed. Applying Run twice yields
// the same bytes as applying it once.
func Run(ctx context.Context, target platform.InstallTarget, paths []string) ([]string, error) {
	log := otelzap.Ctx(ctx)

	var changed []string
	for _, path := range paths {
		fileChanged, err := normalizeFile(target, path)
		if err != nil {
			return changed, cerr.Wrapf(err, "normalize %s", path)
		}
		if fileChanged {
			changed = append(changed, path)
			log.Info("Normalized script", zap.String("path", path))
		}
	}

	log.Info("Artifact normalization complete",
		zap.Int("examined", len(paths)), zap.Int("changed", len(changed)))
	return changed, nil
}

func normalizeFile(target platform.InstallTarget, path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	changed := false
	stripped := bytes.ReplaceAll(data, []byte("\r"), nil)
	if !bytes.Equal(stripped, data) {
		if err := os.WriteFile(path, stripped, info.Mode().Perm()); err != nil {
			return false, err
		}
		changed = true
	}

	if target.OSFamily != platform.Windows && info.Mode().Perm()&0o111 == 0 {
		if err := os.Chmod(path, unixExecMode); err != nil {
			return changed, err
		}
		changed = true
	}

	return changed, nil
}
