// cmd/uninstall.go

package cmd

import (
	"fmt"

	"github.com/afitler79-alt/xui-installer/pkg/installer"
	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/afitler79-alt/xui-installer/pkg/xui_cli"
	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	"github.com/spf13/cobra"
)

var UninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the autostart service and elevation rule",
	Long: `Runs the uninstall state machine: unregister the autostart service and
revoke the elevation rule. Works after a partial install; removing nothing
is success. OS packages installed by the dependency resolver are left in
place because other software may depend on them.`,
	RunE: xui_cli.Wrap(func(rc *xui_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		store, err := state.NewStore()
		if err != nil {
			return err
		}

		outcome, err := installer.New(installer.Options{NonInteractive: true}, store).Uninstall(rc)
		if outcome.Success {
			fmt.Fprintln(cmd.OutOrStdout(), "XUI kiosk shell uninstalled")
			return nil
		}
		return err
	}),
}
