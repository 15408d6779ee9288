// cmd/check_update.go

package cmd

import (
	"fmt"

	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/afitler79-alt/xui-installer/pkg/update"
	"github.com/afitler79-alt/xui-installer/pkg/xui_cli"
	"github.com/afitler79-alt/xui-installer/pkg/xui_io"
	"github.com/spf13/cobra"
)

var checkUpdateBranch string

var CheckUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check the update channel for a newer kiosk shell build",
	Long: `Resolves the channel branch (flag, XUI_UPDATE_BRANCH, persisted channel,
platform default — in that order), probes the upstream repository's HEAD
commit, and compares it against the installed commit. Advisory only: a
network failure reports "unknown" and still exits 0.`,
	RunE: xui_cli.Wrap(func(rc *xui_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		target, err := platform.Detect()
		if err != nil {
			return err
		}
		store, err := state.NewStore()
		if err != nil {
			return err
		}

		res := update.NewChecker(store).Check(rc.Ctx, checkUpdateBranch, target)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "branch:    %s\n", res.Branch)
		if res.Installed != "" {
			fmt.Fprintf(out, "installed: %s\n", res.Installed)
		}
		if res.Latest != "" {
			fmt.Fprintf(out, "latest:    %s\n", res.Latest)
		}
		fmt.Fprintf(out, "status:    %s\n", res.Availability)
		return nil
	}),
}

func init() {
	CheckUpdateCmd.Flags().StringVar(&checkUpdateBranch, "update-branch", "",
		"channel branch to check instead of the resolved one")
}
