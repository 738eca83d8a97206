package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/stephenmfriend/agent-commander/command"
	"github.com/stephenmfriend/agent-commander/executor"
	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/metrics"
	"github.com/stephenmfriend/agent-commander/session"
	"github.com/stephenmfriend/agent-commander/stream"
	"github.com/stephenmfriend/agent-commander/tools"
)

// Controller drives a single agent run.
type Controller struct {
	opts     Options
	registry *tools.Registry
	tool     tools.Tool
	out      io.Writer
	errOut   io.Writer
	logger   *slog.Logger
	sink     executor.LineSink
	sessions *session.Store
	runID    string

	mu         sync.Mutex
	handle     *executor.ProcessHandle
	collecting bool
	output     *stream.OutputStream
	sessionID  string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithRegistry sets the tool registry. Defaults to tools.DefaultRegistry.
func WithRegistry(r *tools.Registry) ControllerOption {
	return func(c *Controller) { c.registry = r }
}

// WithOutput sets where status lines and attached output are written.
// Defaults to os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) ControllerOption {
	return func(c *Controller) {
		c.out = stdout
		c.errOut = stderr
	}
}

// WithLogger sets the logger. Defaults to logging.Logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithLineSink observes output lines of an attached run as they arrive.
func WithLineSink(s executor.LineSink) ControllerOption {
	return func(c *Controller) { c.sink = s }
}

// WithSessionStore records detached runs in s.
func WithSessionStore(s *session.Store) ControllerOption {
	return func(c *Controller) { c.sessions = s }
}

// New validates opts and returns a controller.
func New(opts Options, options ...ControllerOption) (*Controller, error) {
	if opts.Tool == "" {
		return nil, fmt.Errorf("%w: tool is required", ErrInvalidConfig)
	}
	if opts.WorkingDirectory == "" {
		return nil, fmt.Errorf("%w: working_directory is required", ErrInvalidConfig)
	}
	iso, err := ParseIsolation(string(opts.Isolation))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	opts.Isolation = iso
	if opts.Isolation == IsolationScreen && opts.ScreenName == "" {
		return nil, fmt.Errorf("%w: screen_name is required for screen isolation", ErrInvalidConfig)
	}
	if opts.Isolation == IsolationDocker && opts.ContainerName == "" {
		return nil, fmt.Errorf("%w: container_name is required for docker isolation", ErrInvalidConfig)
	}

	c := &Controller{
		opts:     opts,
		registry: tools.DefaultRegistry,
		out:      os.Stdout,
		errOut:   os.Stderr,
		runID:    logging.NewRunID(),
	}
	for _, o := range options {
		o(c)
	}
	if c.logger == nil {
		c.logger = logging.Logger()
	}
	c.logger = c.logger.With("run_id", c.runID, "tool", opts.Tool)

	// Unknown tools still run through the generic command form.
	if c.registry != nil {
		if tool, err := c.registry.Get(opts.Tool); err == nil {
			c.tool = tool
		}
	}

	return c, nil
}

// Options returns the controller's options.
func (c *Controller) Options() Options {
	return c.opts
}

// RunID identifies this run in logs and session records.
func (c *Controller) RunID() string {
	return c.runID
}

// Command returns the command line Start would run.
func (c *Controller) Command(detached bool) string {
	extra := c.opts.Extra
	extra.AppendSystemPrompt = c.opts.AppendSystemPrompt
	extra.FallbackModel = c.opts.FallbackModel
	extra.SessionID = c.opts.SessionID
	extra.ForkSession = c.opts.ForkSession
	extra.Verbose = c.opts.Verbose
	extra.ReplayUserMessages = c.opts.ReplayUserMessages

	return command.BuildAgentCommand(c.registry, command.Options{
		Tool:             c.opts.Tool,
		WorkingDirectory: c.opts.WorkingDirectory,
		Prompt:           c.opts.Prompt,
		SystemPrompt:     c.opts.SystemPrompt,
		Model:            c.opts.Model,
		JSON:             c.opts.JSON,
		Resume:           c.opts.Resume,
		Isolation:        string(c.opts.Isolation),
		ScreenName:       c.opts.ScreenName,
		ContainerName:    c.opts.ContainerName,
		Image:            c.opts.Image,
		Detached:         detached,
		Extra:            extra,
	})
}

// Start launches the agent. It returns once the process is running; use
// Stop to wait for it and collect the result.
func (c *Controller) Start(ctx context.Context, opts StartOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return ErrAlreadyStarted
	}

	if c.opts.JSON {
		c.output = stream.NewOutputStream(stream.WithListener(parseErrorListener{
			tool:   c.opts.Tool,
			logger: c.logger,
		}))
	}

	cmdLine := c.Command(opts.Detached)

	if opts.DryRun {
		executor.PrintDryRun(c.out, cmdLine)
		return nil
	}

	if opts.Detached {
		return c.startDetached(ctx, cmdLine)
	}

	start := executor.StartOptions{Logger: c.logger}
	var sinks multiSink
	if opts.Attached {
		sinks = append(sinks, echoSink{stdout: c.out, stderr: c.errOut})
	}
	if c.sink != nil {
		sinks = append(sinks, c.sink)
	}
	if len(sinks) > 0 {
		start.LineSink = sinks
	}

	h, err := executor.Start(ctx, cmdLine, start)
	if err != nil {
		return err
	}
	c.handle = h
	c.logger.Info("agent started", "pid", h.PID(), "isolation", c.isolation())
	return nil
}

func (c *Controller) startDetached(ctx context.Context, cmdLine string) error {
	pid, err := executor.ExecuteDetached(ctx, cmdLine)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Agent started in detached mode")
	name := strconv.Itoa(pid)
	switch c.opts.Isolation {
	case IsolationScreen:
		fmt.Fprintf(c.out, "Screen session: %s\n", c.opts.ScreenName)
		name = c.opts.ScreenName
	case IsolationDocker:
		fmt.Fprintf(c.out, "Container: %s\n", c.opts.ContainerName)
		name = c.opts.ContainerName
	}

	metrics.RunsTotal.WithLabelValues(c.opts.Tool, string(c.isolation()), "detached").Inc()
	c.logger.Info("agent detached", "pid", pid, "isolation", c.isolation(), "name", name)

	if c.sessions != nil {
		rec := session.Record{
			Name:             name,
			Isolation:        string(c.isolation()),
			Tool:             c.opts.Tool,
			WorkingDirectory: c.opts.WorkingDirectory,
			Command:          cmdLine,
			PID:              pid,
			RunID:            c.runID,
			StartedAt:        time.Now(),
		}
		if err := c.sessions.Add(rec); err != nil {
			c.logger.Warn("failed to record session", "error", err)
		}
	}
	return nil
}

// Stop ends the run and collects its result. For screen and docker runs it
// issues the stop command; otherwise it waits for the process to exit.
// A run can be stopped once.
func (c *Controller) Stop(ctx context.Context, opts StopOptions) (*Result, error) {
	switch c.opts.Isolation {
	case IsolationScreen:
		return c.stopIsolated(ctx, opts, c.opts.ScreenName, command.BuildScreenStopCommand)
	case IsolationDocker:
		return c.stopIsolated(ctx, opts, c.opts.ContainerName, command.BuildDockerStopCommand)
	case IsolationNone, "":
		return c.collect()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIsolation, c.opts.Isolation)
	}
}

func (c *Controller) stopIsolated(ctx context.Context, opts StopOptions, name string, build func(string) string) (*Result, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: a %s name is required to stop", ErrInvalidConfig, c.opts.Isolation)
	}
	stopCmd := build(name)

	if opts.DryRun {
		executor.PrintDryRun(c.out, stopCmd)
		return &Result{}, nil
	}

	res, err := executor.Execute(ctx, stopCmd, executor.RunOptions{
		Attached: true,
		Stdout:   c.out,
		Stderr:   c.errOut,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, err
	}

	if c.sessions != nil {
		if _, err := c.sessions.Remove(string(c.opts.Isolation), name); err != nil {
			c.logger.Warn("failed to remove session record", "error", err)
		}
	}
	c.logger.Info("agent stopped", "isolation", c.opts.Isolation, "name", name, "exit_code", res.ExitCode)

	return &Result{
		ExitCode:    res.ExitCode,
		PlainOutput: res.Stdout,
	}, nil
}

// Wait blocks until an attached process exits and collects its result,
// whatever the isolation mode. For screen and docker runs this waits for
// the wrapper to return instead of sending the stop command.
func (c *Controller) Wait() (*Result, error) {
	return c.collect()
}

func (c *Controller) collect() (*Result, error) {
	c.mu.Lock()
	h := c.handle
	output := c.output
	if h == nil || c.collecting {
		c.mu.Unlock()
		return nil, ErrNotStarted
	}
	c.collecting = true
	c.mu.Unlock()

	// The handle stays set while waiting so Interrupt and Kill still reach it.
	code, err := h.WaitForExit()

	c.mu.Lock()
	c.handle = nil
	c.collecting = false
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	stdout, stderr, _, _ := h.Output()

	plain := stdout
	if stderr != "" {
		plain = stdout + "\n" + stderr
	}

	res := &Result{
		ExitCode:    code,
		PlainOutput: plain,
	}

	if output != nil {
		output.Process(stdout)
		output.Flush()
		if msgs := output.Messages(); len(msgs) > 0 {
			res.Messages = msgs
			metrics.MessagesTotal.WithLabelValues(c.opts.Tool).Add(float64(len(msgs)))
		}
	}

	if c.tool != nil {
		if id, ok := c.tool.ExtractSessionID(plain); ok {
			res.SessionID = id
		}
		res.Usage = c.tool.ExtractUsage(stdout)
		res.Error = c.tool.DetectErrors(stdout)
		metrics.RecordTokens(c.opts.Tool, res.Usage.InputTokens, res.Usage.OutputTokens)
	}

	c.mu.Lock()
	c.sessionID = res.SessionID
	c.mu.Unlock()

	metrics.RunsTotal.WithLabelValues(c.opts.Tool, string(c.isolation()), metrics.ExitStatus(code)).Inc()
	c.logger.Info("agent finished", "exit_code", code, "session_id", res.SessionID, "messages", len(res.Messages))
	if res.Error.HasError {
		c.logger.Warn("agent reported an error", "type", res.Error.Type, "message", res.Error.Message)
	}

	return res, nil
}

// Interrupt sends SIGINT to a running attached process.
func (c *Controller) Interrupt() error {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()

	if h == nil {
		return ErrNotStarted
	}
	return h.Interrupt()
}

// Kill forcibly terminates a running attached process.
func (c *Controller) Kill() error {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()

	if h == nil {
		return ErrNotStarted
	}
	return h.Kill()
}

// SessionID returns the session id found by the last Stop.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Messages returns the messages parsed so far in JSON mode.
func (c *Controller) Messages() []stream.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.output == nil {
		return nil
	}
	return c.output.Messages()
}

// ParseErrors returns the malformed JSON lines seen in JSON mode.
func (c *Controller) ParseErrors() []stream.ParseError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.output == nil {
		return nil
	}
	return c.output.Errors()
}

func (c *Controller) isolation() Isolation {
	if c.opts.Isolation == "" {
		return IsolationNone
	}
	return c.opts.Isolation
}

type parseErrorListener struct {
	stream.NopListener
	tool   string
	logger *slog.Logger
}

func (l parseErrorListener) OnParseError(err stream.ParseError) {
	metrics.ParseErrors.WithLabelValues(l.tool).Inc()
	l.logger.Debug("malformed JSON line", "line_number", err.LineNumber, "line", err.Line)
}

type multiSink []executor.LineSink

func (m multiSink) OnStdout(line string) {
	for _, s := range m {
		s.OnStdout(line)
	}
}

func (m multiSink) OnStderr(line string) {
	for _, s := range m {
		s.OnStderr(line)
	}
}

type echoSink struct {
	stdout io.Writer
	stderr io.Writer
}

func (e echoSink) OnStdout(line string) { fmt.Fprintln(e.stdout, line) }
func (e echoSink) OnStderr(line string) { fmt.Fprintln(e.stderr, line) }
