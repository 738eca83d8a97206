package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stephenmfriend/agent-commander/agent"
	"github.com/stephenmfriend/agent-commander/command"
	"github.com/stephenmfriend/agent-commander/container"
	"github.com/stephenmfriend/agent-commander/executor"
	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/session"
	"github.com/stephenmfriend/agent-commander/ui"
)

type statusOptions struct {
	isolation     *isolationValue
	screenName    string
	containerName string
	prune         bool
}

// liveness is the observed state of one detached run.
type liveness struct {
	Isolation agent.Isolation
	Name      string
	Alive     bool
	State     string
}

// checker looks up runs. The lookups are fields so tests can replace them.
type checker struct {
	screenList   func(ctx context.Context) (string, error)
	newInspector func() (container.Inspector, error)
	processAlive func(pid int) bool

	screenOut *string
	inspector container.Inspector
}

func newChecker() *checker {
	return &checker{
		screenList: func(ctx context.Context) (string, error) {
			// screen -ls exits non-zero when there are no sessions.
			res, err := executor.Execute(ctx, command.BuildScreenListCommand(), executor.RunOptions{
				Logger: logging.Logger(),
			})
			if err != nil {
				return "", err
			}
			return res.Stdout, nil
		},
		newInspector: func() (container.Inspector, error) {
			return container.NewDockerInspector()
		},
		processAlive: executor.ProcessAlive,
	}
}

func (c *checker) close() {
	if c.inspector != nil {
		_ = c.inspector.Close()
	}
}

func (c *checker) check(ctx context.Context, iso agent.Isolation, name string, pid int) (liveness, error) {
	l := liveness{Isolation: iso, Name: name}

	switch iso {
	case agent.IsolationScreen:
		if c.screenOut == nil {
			out, err := c.screenList(ctx)
			if err != nil {
				return l, err
			}
			c.screenOut = &out
		}
		if s, ok := command.FindScreenSession(*c.screenOut, name); ok {
			l.Alive = true
			l.State = "running"
			if s.State != "" {
				l.State = "running (" + s.State + ")"
			}
		} else {
			l.State = "not found"
		}

	case agent.IsolationDocker:
		if c.inspector == nil {
			in, err := c.newInspector()
			if err != nil {
				return l, err
			}
			c.inspector = in
		}
		info, err := c.inspector.Inspect(ctx, name)
		if err != nil {
			return l, err
		}
		l.Alive = info.Status.Alive()
		l.State = string(info.Status)
		if info.Status == container.StatusExited {
			l.State = fmt.Sprintf("exited (%d)", info.ExitCode)
		}

	default:
		l.Alive = pid > 0 && c.processAlive(pid)
		if l.Alive {
			l.State = "running"
		} else {
			l.State = "exited"
		}
	}

	return l, nil
}

func newStatusCmd() *cobra.Command {
	o := &statusOptions{
		isolation: newIsolationValue("", agent.IsolationScreen, agent.IsolationDocker),
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether detached agents are still running",
		Long: `Report whether a screen session or docker container is alive.

With --isolation, checks one session and exits 1 when it is not running.
Without it, checks every run recorded by start --detached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, o, newChecker())
		},
	}

	f := cmd.Flags()
	f.Var(o.isolation, "isolation", "Isolation mode to check")
	f.StringVar(&o.screenName, "screen-name", "", "Screen session name (screen isolation)")
	f.StringVar(&o.containerName, "container-name", "", "Container name (docker isolation)")
	f.BoolVar(&o.prune, "prune", false, "Forget recorded runs that are no longer alive")

	return cmd
}

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func runStatus(cmd *cobra.Command, o *statusOptions, c *checker) error {
	defer c.close()
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if o.isolation.String() != "" {
		iso, err := o.isolation.Validate()
		if err != nil {
			printInvalid(stderr, "status", []string{err.Error()})
			return exitError{code: 1}
		}
		name := o.screenName
		if iso == agent.IsolationDocker {
			name = o.containerName
		}
		if name == "" {
			printInvalid(stderr, "status", []string{fmt.Sprintf("a name is required for %s isolation", iso)})
			return exitError{code: 1}
		}

		l, err := c.check(ctx, iso, name, 0)
		if err != nil {
			return err
		}
		printLiveness(stdout, l)
		if !l.Alive {
			return exitError{code: 1}
		}
		return nil
	}

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	store, err := sessionStore(cfg)
	if err != nil {
		return err
	}
	return statusAll(ctx, stdout, store, c, o.prune)
}

func statusAll(ctx context.Context, w io.Writer, store *session.Store, c *checker, prune bool) error {
	records, err := store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No detached agents recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ISOLATION\tNAME\tTOOL\tSTATE\tSTARTED")
	for _, r := range records {
		l, err := c.check(ctx, agent.Isolation(r.Isolation), r.Name, r.PID)
		if err != nil {
			l.State = "unknown: " + err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Isolation, r.Name, r.Tool, l.State, r.StartedAt.Format(time.DateTime))

		if prune && err == nil && !l.Alive {
			if _, err := store.Remove(r.Isolation, r.Name); err != nil {
				logging.Logger().Warn("failed to prune session", "key", r.Key(), "error", err)
			}
		}
	}
	return tw.Flush()
}

func printLiveness(w io.Writer, l liveness) {
	style := ui.SuccessStyle
	if !l.Alive {
		style = ui.WarnStyle
	}
	kind := "Screen session"
	if l.Isolation == agent.IsolationDocker {
		kind = "Container"
	}
	fmt.Fprintf(w, "%s %s: %s\n", kind, l.Name, styled(w, style, l.State))
}
