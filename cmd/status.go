// cmd/status.go

package cmd

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/afitler79-alt/xui-installer/pkg/deps"
	"github.com/afitler79-alt/xui-installer/pkg/installer"
	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/privilege"
	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/afitler79-alt/xui-installer/pkg/svcreg"
	"github.com/afitler79-alt/xui-installer/pkg/xui_cli"
	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	"github.com/spf13/cobra"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report what is installed on this machine",
	Long:  "Read-only report of platform, install state, elevation rule, and channel.",
	RunE: xui_cli.Wrap(func(rc *xui_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		target, targetErr := platform.Detect()
		if targetErr != nil {
			fmt.Fprintf(out, "platform:        unsupported (%v)\n", targetErr)
		} else {
			fmt.Fprintf(out, "platform:        %s/%s", target.OSFamily, target.Arch)
			if target.DistroHint != "" {
				fmt.Fprintf(out, " (%s)", target.DistroHint)
			}
			fmt.Fprintln(out)
		}

		store, err := state.NewStore()
		if err != nil {
			return err
		}

		st, err := store.LoadUpdateState()
		if err != nil {
			return err
		}
		if st.InstalledAt.IsZero() {
			fmt.Fprintln(out, "installed:       no")
		} else {
			fmt.Fprintf(out, "installed:       %s", st.InstalledAt.Format("2006-01-02 15:04:05 MST"))
			if st.InstallerVersion != "" {
				fmt.Fprintf(out, " (installer %s)", st.InstallerVersion)
			}
			fmt.Fprintln(out)
		}
		if st.InstalledCommit != "" {
			fmt.Fprintf(out, "commit:          %s\n", st.InstalledCommit)
		}

		ch, err := store.LoadChannel()
		if err != nil {
			return err
		}
		if ch.Branch != "" {
			fmt.Fprintf(out, "channel:         %s\n", ch.Branch)
		}

		rec, err := store.LoadPackages()
		if err != nil {
			return err
		}
		if len(rec.Packages) > 0 {
			fmt.Fprintf(out, "packages:        %s\n", strings.Join(rec.Packages, ", "))
		}

		if reg, ok, err := svcreg.NewRegistrar(store.Dir, nil).Desired(installer.ServiceName); err == nil && ok {
			fmt.Fprintf(out, "service:         %s (run-at %s, enabled %t)\n",
				reg.Name, reg.RunAt, reg.Enabled)
		} else {
			fmt.Fprintln(out, "service:         not registered")
		}

		if u, err := user.Current(); err == nil {
			rulePath := privilege.NewScoper("", nil).RulePath(u.Username)
			if _, err := os.Stat(rulePath); err == nil {
				fmt.Fprintf(out, "elevation rule:  %s\n", rulePath)
			} else {
				fmt.Fprintln(out, "elevation rule:  absent")
			}
		}

		if targetErr == nil {
			fmt.Fprintln(out, "dependencies:")
			resolver := deps.NewResolver(target)
			for _, res := range resolver.Survey(rc.Ctx, deps.Catalog(target, true)) {
				tier := "required"
				if res.Tier == deps.TierOptional {
					tier = "optional"
				}
				fmt.Fprintf(out, "  %-22s %s (%s)\n", res.Name, res.Status, tier)
			}
		}

		return nil
	}),
}
