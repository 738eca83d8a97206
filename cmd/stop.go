package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stephenmfriend/agent-commander/agent"
	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/session"
	"github.com/stephenmfriend/agent-commander/ui"
)

type stopOptions struct {
	isolation     *isolationValue
	screenName    string
	containerName string
	dryRun        bool
}

func newStopCmd() *cobra.Command {
	o := &stopOptions{
		isolation: newIsolationValue("", agent.IsolationScreen, agent.IsolationDocker),
	}

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a detached agent",
		Long: `Stop an agent running in a screen session or docker container.

Exits with the exit code of the screen or docker stop command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, o)
		},
	}

	f := cmd.Flags()
	f.Var(o.isolation, "isolation", "Isolation mode of the running agent")
	f.StringVar(&o.screenName, "screen-name", "", "Screen session name (screen isolation)")
	f.StringVar(&o.containerName, "container-name", "", "Container name (docker isolation)")
	f.BoolVar(&o.dryRun, "dry-run", false, "Print the stop command without running it")

	return cmd
}

func init() {
	rootCmd.AddCommand(newStopCmd())
}

func (o *stopOptions) validate() (agent.Isolation, []string) {
	if o.isolation.String() == "" {
		return "", []string{"--isolation is required"}
	}

	var errs []string
	iso, err := o.isolation.Validate()
	if err != nil {
		errs = append(errs, err.Error())
	}
	if iso == agent.IsolationScreen && o.screenName == "" {
		errs = append(errs, "--screen-name is required for screen isolation")
	}
	if iso == agent.IsolationDocker && o.containerName == "" {
		errs = append(errs, "--container-name is required for docker isolation")
	}
	return iso, errs
}

func runStop(cmd *cobra.Command, o *stopOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	iso, errs := o.validate()
	if len(errs) > 0 {
		printInvalid(stderr, "stop", errs)
		return exitError{code: 1}
	}

	logger := logging.Logger()
	var store *session.Store
	if cfg, err := loadConfig(""); err != nil {
		logger.Warn("failed to load config", "error", err)
	} else if store, err = sessionStore(cfg); err != nil {
		logger.Warn("session registry unavailable", "error", err)
	}

	// Tool and directory are not used to stop, but the controller needs them.
	ctrl, err := agent.New(agent.Options{
		Tool:             "stop",
		WorkingDirectory: "/tmp",
		Isolation:        iso,
		ScreenName:       o.screenName,
		ContainerName:    o.containerName,
	},
		agent.WithOutput(stdout, stderr),
		agent.WithLogger(logger),
		agent.WithSessionStore(store),
	)
	if err != nil {
		return err
	}

	res, err := ctrl.Stop(cmd.Context(), agent.StopOptions{DryRun: o.dryRun})
	if err != nil {
		return err
	}

	if res.ExitCode != 0 {
		fmt.Fprintln(stderr, styled(stderr, ui.ErrorStyle, fmt.Sprintf("Stop command exited with code %d", res.ExitCode)))
		return exitError{code: res.ExitCode}
	}
	fmt.Fprintln(stdout, styled(stdout, ui.SuccessStyle, "Agent stopped successfully"))
	return nil
}
