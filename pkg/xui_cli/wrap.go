// pkg/xui_cli/wrap.go

package xui_cli

import (
	"github.com/afitler79-alt/xui-installer/pkg/logger"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// Wrap adapts an installer command handler to cobra, providing logger
// initialization, runtime-context lifecycle, and panic recovery. Expected
// user errors pass through unchanged; everything else gains a stack.
func Wrap(fn func(rc *xui_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.InitFallback()

		rc := xui_io.NewContext(cmd.Context(), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		err = fn(rc, cmd, args)
		if err != nil && !xui_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
