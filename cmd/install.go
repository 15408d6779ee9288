// cmd/install.go

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/afitler79-alt/xui-installer/pkg/installer"
	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/afitler79-alt/xui-installer/pkg/svcreg"
	"github.com/afitler79-alt/xui-installer/pkg/xui_cli"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// installViper binds install flags to XUI_* environment variables.
// Precedence: CLI flag > environment > default — the flag always wins.
var installViper = viper.New()

var InstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the kiosk shell runtime, autostart service, and elevation rule",
	Long: `Runs the install state machine:
detect platform, normalize startup scripts, resolve dependencies, register
the autostart service, and scope the elevation rule. Re-running with
identical flags changes nothing on an already-installed machine.`,
	RunE: xui_cli.Wrap(func(rc *xui_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		runAt, err := svcreg.ParseRunAt(installViper.GetString("run-at"))
		if err != nil {
			return xui_err.NewExpectedError(rc.Ctx, err)
		}

		store, err := state.NewStore()
		if err != nil {
			return err
		}

		opts := installer.Options{
			Paths: installer.KioskPaths{
				StartScript: installViper.GetString("start-script"),
				Dashboard:   installViper.GetString("dashboard-script"),
			},
			NonInteractive:  installViper.GetBool("yes-install"),
			SkipAptWait:     installViper.GetBool("skip-apt-wait"),
			Branch:          installViper.GetString("update-branch"),
			EnableAutostart: installViper.GetBool("enable-autostart"),
			RunAt:           runAt,
			WithExtras:      installViper.GetBool("with-extras"),
		}

		rc.Log.Info("Starting install",
			zap.String("run_at", string(runAt)),
			zap.Bool("non_interactive", opts.NonInteractive),
			zap.String("branch", opts.Branch))

		outcome, err := installer.New(opts, store).Install(rc)
		if outcome.Success {
			fmt.Fprintln(cmd.OutOrStdout(), "XUI kiosk shell installed")
			return nil
		}
		rc.Log.Error("Install failed",
			zap.String("failed_step", string(outcome.FailedStep)),
			zap.String("remediation", outcome.Remediation))
		return err
	}),
}

func init() {
	f := InstallCmd.Flags()
	f.Bool("yes-install", false, "non-interactive mode: never prompt (env XUI_AUTO_INSTALL; the flag wins)")
	f.Bool("skip-apt-wait", false, "do not wait for the apt/dpkg locks before installing packages")
	f.String("update-branch", "", "artifact channel to install from and persist (env XUI_UPDATE_BRANCH)")
	f.Bool("enable-autostart", true, "start the service now and at every boot/login; =false registers it disabled")
	f.String("run-at", string(svcreg.RunAtLogin), "service execution point: boot or login")
	f.Bool("with-extras", false, "also install the optional companion tools (best effort)")
	f.String("start-script", defaultScript("start_xui.sh"), "absolute path of the kiosk start script")
	f.String("dashboard-script", defaultScript("xui_dashboard.sh"), "absolute path of the dashboard launcher")

	for _, name := range []string{
		"yes-install", "skip-apt-wait", "update-branch", "enable-autostart",
		"run-at", "with-extras", "start-script", "dashboard-script",
	} {
		_ = installViper.BindPFlag(name, f.Lookup(name))
	}
	_ = installViper.BindEnv("yes-install", "XUI_AUTO_INSTALL")
	_ = installViper.BindEnv("update-branch", "XUI_UPDATE_BRANCH")
	_ = installViper.BindEnv("skip-apt-wait", "XUI_SKIP_APT_WAIT")
	_ = installViper.BindEnv("run-at", "XUI_RUN_AT")
	_ = installViper.BindEnv("start-script", "XUI_START_SCRIPT")
	_ = installViper.BindEnv("dashboard-script", "XUI_DASHBOARD_SCRIPT")
}

// defaultScript resolves a packaged script path under the xui home; the
// packaging layer overrides these with its real locations.
func defaultScript(name string) string {
	home, err := state.Home()
	if err != nil {
		return filepath.Join("/opt/xui", name)
	}
	return filepath.Join(home, "bin", name)
}
