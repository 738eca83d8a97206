package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/metrics"
)

// LineSink observes output lines as they are read from a running process.
// Calls for one stream arrive in order; stdout and stderr calls may
// interleave from different goroutines.
type LineSink interface {
	OnStdout(line string)
	OnStderr(line string)
}

// StartOptions configures Start.
type StartOptions struct {
	// Stdin is fed to the process. Nil connects the null device, so the
	// agent never reads from the controlling terminal.
	Stdin io.Reader

	// LineSink, when set, sees every line of output.
	LineSink LineSink

	// Logger overrides the context logger.
	Logger *slog.Logger
}

// ProcessHandle is a running `bash -c` process. Its output is drained in
// the background from the moment it starts.
type ProcessHandle struct {
	command string
	cmd     *exec.Cmd
	start   time.Time
	logger  *slog.Logger

	mu     sync.Mutex
	stdout strings.Builder
	stderr strings.Builder

	done     chan struct{}
	exitCode int
	waitErr  error
}

// Start spawns command under bash and returns immediately. Cancelling ctx
// kills the whole process group.
func Start(ctx context.Context, command string, opts StartOptions) (*ProcessHandle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithContext(ctx, nil)
	}

	cmd := exec.CommandContext(ctx, Shell, "-c", command)
	setProcAttr(cmd)
	cmd.Stdin = opts.Stdin
	cmd.Cancel = func() error {
		return killProcessTree(cmd.Process.Pid, cmd.Process, true)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	h := &ProcessHandle{
		command: command,
		cmd:     cmd,
		start:   time.Now(),
		logger:  logger,
		done:    make(chan struct{}),
	}
	metrics.ProcessesStarted.WithLabelValues("attached").Inc()
	logger.Debug("process started", "pid", cmd.Process.Pid, "command", command)

	var sinkOut, sinkErr func(string)
	if opts.LineSink != nil {
		sinkOut = opts.LineSink.OnStdout
		sinkErr = opts.LineSink.OnStderr
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.drain(stdout, &h.stdout, sinkOut)
	}()
	go func() {
		defer wg.Done()
		h.drain(stderr, &h.stderr, sinkErr)
	}()

	go func() {
		// Pipes must be fully read before Wait closes them.
		wg.Wait()
		h.finish(cmd.Wait())
	}()

	return h, nil
}

// drain reads r line by line until EOF. Lines have no length limit; a
// final line without a newline is still delivered.
func (h *ProcessHandle) drain(r io.Reader, dst *strings.Builder, sink func(string)) {
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

			h.mu.Lock()
			dst.WriteString(line)
			dst.WriteByte('\n')
			h.mu.Unlock()

			if sink != nil {
				sink(line)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Warn("output read failed", "error", err)
				_, _ = io.Copy(io.Discard, r)
			}
			return
		}
	}
}

func (h *ProcessHandle) finish(err error) {
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
			if code < 0 {
				code = 1
			}
			err = nil
		} else {
			code = 1
		}
	}

	duration := time.Since(h.start)
	metrics.RecordProcessExit(code, duration)
	h.logger.Debug("process exited", "pid", h.PID(), "exit_code", code, "duration", duration)

	h.exitCode = code
	h.waitErr = err
	close(h.done)
}

// Command returns the command line the handle is running.
func (h *ProcessHandle) Command() string {
	return h.command
}

// PID returns the shell's process id.
func (h *ProcessHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Done is closed once the process has exited and its output is drained.
func (h *ProcessHandle) Done() <-chan struct{} {
	return h.done
}

// WaitForExit blocks until the process exits and returns its exit code.
// A process killed by a signal reports 1. Repeated calls return the same
// result.
func (h *ProcessHandle) WaitForExit() (int, error) {
	<-h.done
	return h.exitCode, h.waitErr
}

// HasExited reports whether the process has finished, without blocking.
func (h *ProcessHandle) HasExited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Output returns the output collected so far. exited reports whether the
// process has finished; exitCode is only meaningful when it has.
func (h *ProcessHandle) Output() (stdout, stderr string, exitCode int, exited bool) {
	exited = h.HasExited()

	h.mu.Lock()
	stdout, stderr = h.stdout.String(), h.stderr.String()
	h.mu.Unlock()

	if exited {
		exitCode = h.exitCode
	}
	return stdout, stderr, exitCode, exited
}

// Interrupt sends SIGINT to the process group.
func (h *ProcessHandle) Interrupt() error {
	return h.signal(false)
}

// Kill forcibly terminates the process group.
func (h *ProcessHandle) Kill() error {
	return h.signal(true)
}

func (h *ProcessHandle) signal(force bool) error {
	if h.cmd.Process == nil {
		return ErrNoProcess
	}
	if h.HasExited() {
		return nil
	}
	return killProcessTree(h.cmd.Process.Pid, h.cmd.Process, force)
}
