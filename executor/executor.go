// Package executor runs shell command lines under bash, either to
// completion, as a background handle, or fully detached.
package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/metrics"
)

// Shell runs every command as `bash -c <command>`.
const Shell = "bash"

// DryRunHeader precedes the command printed for a dry run.
const DryRunHeader = "Dry run - command that would be executed:"

// Result is the outcome of Execute.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Command  string
}

// RunOptions configures Execute.
type RunOptions struct {
	// DryRun prints the command instead of running it.
	DryRun bool

	// Attached echoes output lines to Stdout and Stderr as they arrive.
	Attached bool

	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

func (o RunOptions) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o RunOptions) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}

// PrintDryRun writes the dry run header and command to w.
func PrintDryRun(w io.Writer, command string) {
	fmt.Fprintln(w, DryRunHeader)
	fmt.Fprintln(w, command)
}

// Execute runs command to completion and collects its output.
func Execute(ctx context.Context, command string, opts RunOptions) (*Result, error) {
	if opts.DryRun {
		PrintDryRun(opts.stdout(), command)
		return &Result{Command: command}, nil
	}

	start := StartOptions{Logger: opts.Logger}
	if opts.Attached {
		start.LineSink = echoSink{stdout: opts.stdout(), stderr: opts.stderr()}
	}

	h, err := Start(ctx, command, start)
	if err != nil {
		return nil, err
	}

	code, err := h.WaitForExit()
	if err != nil {
		return nil, err
	}
	stdout, stderr, _, _ := h.Output()

	return &Result{
		ExitCode: code,
		Stdout:   stdout,
		Stderr:   stderr,
		Command:  command,
	}, nil
}

type echoSink struct {
	stdout io.Writer
	stderr io.Writer
}

func (e echoSink) OnStdout(line string) { fmt.Fprintln(e.stdout, line) }
func (e echoSink) OnStderr(line string) { fmt.Fprintln(e.stderr, line) }

// ExecuteDetached starts command with no attached streams in its own
// process group and returns its pid without waiting for it.
func ExecuteDetached(ctx context.Context, command string) (int, error) {
	cmd := exec.Command(Shell, "-c", command)
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	pid := cmd.Process.Pid
	metrics.ProcessesStarted.WithLabelValues("detached").Inc()
	logging.WithContext(ctx, nil).Debug("detached process started", "pid", pid, "command", command)

	// Reap the shell when it exits so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

// ProcessAlive reports whether pid names a live process, such as one
// returned by ExecuteDetached.
func ProcessAlive(pid int) bool {
	return processAlive(pid)
}
