package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stephenmfriend/agent-commander/ui"
	"github.com/stephenmfriend/agent-commander/version"
)

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  `Print the version, commit, and build date of agent-commander.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, version.Info())
			if !check {
				return nil
			}

			latest, available, err := version.CheckForUpdate(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case available:
				fmt.Fprintln(out, styled(out, ui.WarnStyle, fmt.Sprintf("Update available: %s", latest)))
			case latest == "":
				fmt.Fprintln(out, "Development build, skipping update check")
			default:
				fmt.Fprintln(out, styled(out, ui.SuccessStyle, "Up to date"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
