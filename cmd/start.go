package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stephenmfriend/agent-commander/agent"
	"github.com/stephenmfriend/agent-commander/config"
	"github.com/stephenmfriend/agent-commander/executor"
	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/session"
	"github.com/stephenmfriend/agent-commander/ui"
)

type startOptions struct {
	tool               string
	workingDirectory   string
	prompt             string
	systemPrompt       string
	appendSystemPrompt string
	model              string
	fallbackModel      string
	verbose            bool
	resume             string
	sessionID          string
	forkSession        bool
	replayUserMessages bool
	json               bool
	isolation          *isolationValue
	screenName         string
	containerName      string
	detached           bool
	dryRun             bool
	tui                bool

	// image comes from the repo config only.
	image string
}

func newStartCmd() *cobra.Command {
	o := &startOptions{
		isolation: newIsolationValue(string(agent.IsolationNone), agent.Isolations...),
	}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an agent",
		Long: `Start an agent CLI in a working directory.

Without --detached the agent's output is streamed to the terminal and
agent-commander exits with the agent's exit code. With --detached the agent
keeps running in the background (use --isolation screen or docker to get it
back later with stop).

Unset options are filled from .agent-commander.yaml or .agent-commander.toml
in the working directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.tool, "tool", "", "Agent CLI to run: claude, codex, opencode, agent, gemini or qwen")
	f.StringVar(&o.workingDirectory, "working-directory", "", "Directory the agent runs in")
	f.StringVar(&o.prompt, "prompt", "", "Prompt for the agent")
	f.StringVar(&o.systemPrompt, "system-prompt", "", "System prompt for the agent")
	f.StringVar(&o.appendSystemPrompt, "append-system-prompt", "", "Text appended to the default system prompt (claude)")
	f.StringVar(&o.model, "model", "", "Model name or alias, e.g. sonnet, opus, gpt5")
	f.StringVar(&o.fallbackModel, "fallback-model", "", "Model to use when the primary is overloaded (claude)")
	f.BoolVar(&o.verbose, "verbose", false, "Verbose agent output")
	f.StringVar(&o.resume, "resume", "", "Session id to resume")
	f.StringVar(&o.sessionID, "session-id", "", "Session id for a new session (claude)")
	f.BoolVar(&o.forkSession, "fork-session", false, "Fork the resumed session instead of continuing it (claude)")
	f.BoolVar(&o.replayUserMessages, "replay-user-messages", false, "Echo user messages on the output stream (claude)")
	f.BoolVar(&o.json, "json", false, "Stream NDJSON output and parse it into messages")
	f.Var(o.isolation, "isolation", "Isolation mode")
	f.StringVar(&o.screenName, "screen-name", "", "Screen session name (screen isolation)")
	f.StringVar(&o.containerName, "container-name", "", "Container name (docker isolation)")
	f.BoolVar(&o.detached, "detached", false, "Run in the background")
	f.BoolVar(&o.dryRun, "dry-run", false, "Print the command without running it")
	f.BoolVar(&o.tui, "tui", false, "Show the live output viewer (isolation none only)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newStartCmd())
}

// applyConfig fills options the user did not set from the repo config.
func (o *startOptions) applyConfig(flags *pflag.FlagSet, cfg config.RepoConfig) {
	if !flags.Changed("tool") && cfg.Tool != "" {
		o.tool = cfg.Tool
	}
	if !flags.Changed("model") {
		if m := cfg.ModelFor(o.tool); m != "" {
			o.model = m
		}
	}
	if !flags.Changed("isolation") && cfg.Isolation != "" {
		_ = o.isolation.Set(cfg.Isolation)
	}
	if !flags.Changed("json") && cfg.JSON {
		o.json = true
	}
	o.image = cfg.ContainerImage
}

// validate collects every problem with the options.
func (o *startOptions) validate() (agent.Isolation, []string) {
	var errs []string

	if o.tool == "" {
		errs = append(errs, "--tool is required")
	}
	if o.workingDirectory == "" {
		errs = append(errs, "--working-directory is required")
	}
	if o.isolation.String() == string(agent.IsolationScreen) && o.screenName == "" {
		errs = append(errs, "--screen-name is required for screen isolation")
	}
	if o.isolation.String() == string(agent.IsolationDocker) && o.containerName == "" {
		errs = append(errs, "--container-name is required for docker isolation")
	}
	iso, err := o.isolation.Validate()
	if err != nil {
		errs = append(errs, err.Error())
	}
	if o.tui {
		if err == nil && iso != agent.IsolationNone {
			errs = append(errs, "--tui requires --isolation none")
		}
		if o.detached {
			errs = append(errs, "--tui cannot be combined with --detached")
		}
	}

	return iso, errs
}

func (o *startOptions) agentOptions(workDir string, iso agent.Isolation) agent.Options {
	return agent.Options{
		Tool:               o.tool,
		WorkingDirectory:   workDir,
		Prompt:             o.prompt,
		SystemPrompt:       o.systemPrompt,
		AppendSystemPrompt: o.appendSystemPrompt,
		Model:              o.model,
		FallbackModel:      o.fallbackModel,
		Isolation:          iso,
		ScreenName:         o.screenName,
		ContainerName:      o.containerName,
		Image:              o.image,
		JSON:               o.json,
		Resume:             o.resume,
		SessionID:          o.sessionID,
		ForkSession:        o.forkSession,
		Verbose:            o.verbose,
		ReplayUserMessages: o.replayUserMessages,
	}
}

func runStart(cmd *cobra.Command, o *startOptions) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := loadConfig(o.workingDirectory)
	if err != nil {
		return err
	}
	o.applyConfig(cmd.Flags(), cfg)

	iso, errs := o.validate()
	if len(errs) > 0 {
		printInvalid(stderr, "start", errs)
		return exitError{code: 1}
	}

	workDir, err := filepath.Abs(o.workingDirectory)
	if err != nil {
		return err
	}
	opts := o.agentOptions(workDir, iso)

	logger := logging.Logger()
	if o.tui && !o.dryRun {
		res, err := runViewer(ctx, opts)
		if err != nil {
			return err
		}
		return finish(stderr, res)
	}

	var store *session.Store
	if o.detached {
		if store, err = sessionStore(cfg); err != nil {
			logger.Warn("session registry unavailable", "error", err)
		}
	}

	ctrl, err := agent.New(opts,
		agent.WithOutput(stdout, stderr),
		agent.WithLogger(logger),
		agent.WithSessionStore(store),
	)
	if err != nil {
		return err
	}

	err = ctrl.Start(ctx, agent.StartOptions{
		DryRun:   o.dryRun,
		Detached: o.detached,
		Attached: !o.detached,
	})
	if err != nil {
		return err
	}
	if o.detached || o.dryRun {
		return nil
	}

	stop := executor.OnInterrupt(ctx, func() {
		if err := ctrl.Interrupt(); err != nil && !errors.Is(err, agent.ErrNotStarted) {
			logger.Warn("failed to interrupt agent", "error", err)
		}
	})
	defer stop()

	// Stop on a screen or docker run would tear it down; wait for the
	// wrapper to return instead.
	var res *agent.Result
	if iso == agent.IsolationNone {
		res, err = ctrl.Stop(ctx, agent.StopOptions{})
	} else {
		res, err = ctrl.Wait()
	}
	if err != nil {
		return err
	}
	return finish(stderr, res)
}

// finish reports a tool error and turns the exit code into the command's.
func finish(stderr io.Writer, res *agent.Result) error {
	if res.SessionID != "" {
		logging.Logger().Info("session", "session_id", res.SessionID)
	}
	if res.Error.HasError {
		fmt.Fprintln(stderr, styled(stderr, ui.WarnStyle,
			fmt.Sprintf("Agent reported an error (%s): %s", res.Error.Type, res.Error.Message)))
	}
	if res.ExitCode != 0 {
		return exitError{code: res.ExitCode}
	}
	return nil
}

// runViewer runs the agent under the live viewer and returns its result.
func runViewer(ctx context.Context, opts agent.Options) (*agent.Result, error) {
	viewer := ui.NewViewer(opts.Tool, nil)
	p := tea.NewProgram(viewer, tea.WithAltScreen(), tea.WithContext(ctx))

	ctrl, err := agent.New(opts,
		agent.WithOutput(io.Discard, io.Discard),
		agent.WithLineSink(ui.ProgramSink{Program: p}),
	)
	if err != nil {
		return nil, err
	}
	viewer.SetStopHandler(func() { _ = ctrl.Interrupt() })

	if err := ctrl.Start(ctx, agent.StartOptions{}); err != nil {
		return nil, err
	}
	go func() {
		res, err := ctrl.Stop(ctx, agent.StopOptions{})
		p.Send(ui.DoneMsg{Result: res, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		_ = ctrl.Kill()
		return nil, err
	}

	res, err := viewer.Result()
	if err != nil {
		return nil, err
	}
	if res == nil {
		// The program ended before the run did.
		_ = ctrl.Kill()
		return nil, errors.New("viewer exited before the agent finished")
	}
	return res, nil
}
