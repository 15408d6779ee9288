// cmd/root.go

package cmd

import (
	"fmt"
	"os"

	"github.com/afitler79-alt/xui-installer/pkg/logger"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	"github.com/spf13/cobra"
)

// RootCmd is the base command for the xui installer.
var RootCmd = &cobra.Command{
	Use:   "xui-installer",
	Short: "Provision the XUI kiosk shell",
	Long: `xui-installer takes a machine from nothing-installed to kiosk shell
running under supervision: it detects the platform, normalizes the startup
scripts, installs the runtime dependencies, registers the autostart service,
and scopes a least-privilege elevation rule for the startup scripts.

Every command is idempotent: re-running install is always safe.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	RootCmd.AddCommand(
		InstallCmd,
		UninstallCmd,
		StatusCmd,
		CheckUpdateCmd,
	)
}

// Execute runs the CLI and maps the failure category to the process exit
// code: 10 detection, 11 dependency, 12 privilege, 13 service, 14 lock.
func Execute() {
	RegisterCommands()

	if err := RootCmd.Execute(); err != nil {
		// One actionable message, never a raw stack trace.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := xui_err.RemediationOf(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		logger.Sync()
		os.Exit(xui_err.ExitCode(err))
	}
	logger.Sync()
}
