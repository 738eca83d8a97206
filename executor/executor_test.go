//go:build !windows

package executor

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestExecuteDryRun(t *testing.T) {
	var out bytes.Buffer
	res, err := Execute(context.Background(), "echo should-not-run", RunOptions{DryRun: true, Stdout: &out})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ExitCode != 0 || res.Stdout != "" || res.Stderr != "" {
		t.Errorf("expected empty result, got %+v", res)
	}
	if res.Command != "echo should-not-run" {
		t.Errorf("expected command to be echoed back, got '%s'", res.Command)
	}
	want := DryRunHeader + "\necho should-not-run\n"
	if out.String() != want {
		t.Errorf("expected dry run output %q, got %q", want, out.String())
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		exitCode int
		stdout   string
		stderr   string
	}{
		{"echo", "echo hello", 0, "hello\n", ""},
		{"multi line", "printf 'a\\nb\\n'", 0, "a\nb\n", ""},
		{"unterminated line", "printf 'partial'", 0, "partial\n", ""},
		{"stderr", "echo oops >&2", 0, "", "oops\n"},
		{"exit code", "echo out; exit 3", 3, "out\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(context.Background(), tt.command, RunOptions{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.ExitCode != tt.exitCode {
				t.Errorf("expected exit code %d, got %d", tt.exitCode, res.ExitCode)
			}
			if res.Stdout != tt.stdout {
				t.Errorf("expected stdout %q, got %q", tt.stdout, res.Stdout)
			}
			if res.Stderr != tt.stderr {
				t.Errorf("expected stderr %q, got %q", tt.stderr, res.Stderr)
			}
		})
	}
}

func TestExecuteAttachedEchoes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	res, err := Execute(context.Background(), "echo one; echo two >&2", RunOptions{
		Attached: true,
		Stdout:   &stdout,
		Stderr:   &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stdout.String() != "one\n" {
		t.Errorf("expected echoed stdout 'one', got %q", stdout.String())
	}
	if stderr.String() != "two\n" {
		t.Errorf("expected echoed stderr 'two', got %q", stderr.String())
	}
	if res.Stdout != "one\n" || res.Stderr != "two\n" {
		t.Errorf("expected output to be collected as well, got %+v", res)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	stdout []string
	stderr []string
}

func (r *recordingSink) OnStdout(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stdout = append(r.stdout, line)
}

func (r *recordingSink) OnStderr(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stderr = append(r.stderr, line)
}

func TestStartHandle(t *testing.T) {
	sink := &recordingSink{}
	h, err := Start(context.Background(), "echo first; echo second; echo warn >&2; exit 2", StartOptions{LineSink: sink})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.PID() <= 0 {
		t.Errorf("expected positive pid, got %d", h.PID())
	}
	if !strings.Contains(h.Command(), "echo first") {
		t.Errorf("unexpected command: %s", h.Command())
	}

	code, err := h.WaitForExit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}

	again, _ := h.WaitForExit()
	if again != code {
		t.Errorf("expected cached exit code %d, got %d", code, again)
	}
	if !h.HasExited() {
		t.Error("expected HasExited after WaitForExit")
	}

	stdout, stderr, exitCode, exited := h.Output()
	if stdout != "first\nsecond\n" || stderr != "warn\n" {
		t.Errorf("unexpected output: stdout=%q stderr=%q", stdout, stderr)
	}
	if !exited || exitCode != 2 {
		t.Errorf("expected exited with code 2, got exited=%v code=%d", exited, exitCode)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.stdout) != 2 || sink.stdout[1] != "second" {
		t.Errorf("expected sink to see stdout lines, got %v", sink.stdout)
	}
	if len(sink.stderr) != 1 || sink.stderr[0] != "warn" {
		t.Errorf("expected sink to see stderr line, got %v", sink.stderr)
	}
}

func TestStartWithStdin(t *testing.T) {
	h, err := Start(context.Background(), "cat", StartOptions{Stdin: strings.NewReader("{\"a\":1}\n")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.WaitForExit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stdout, _, _, _ := h.Output()
	if stdout != "{\"a\":1}\n" {
		t.Errorf("expected stdin to be echoed, got %q", stdout)
	}
}

func TestStartWithoutStdin(t *testing.T) {
	// cat would block forever on an inherited terminal.
	h, err := Start(context.Background(), "cat; echo done", StartOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		_ = h.Kill()
		t.Fatal("expected cat to see EOF on stdin")
	}
	stdout, _, _, _ := h.Output()
	if stdout != "done\n" {
		t.Errorf("expected only the trailing echo, got %q", stdout)
	}
}

func TestStartLongLines(t *testing.T) {
	sink := &recordingSink{}
	cmd := `head -c 2000000 /dev/zero | tr '\0' 'a'; echo; echo '{"type":"result","session_id":"abc"}'; printf 'tail'`
	h, err := Start(context.Background(), cmd, StartOptions{LineSink: sink})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code, err := h.WaitForExit(); err != nil || code != 0 {
		t.Fatalf("expected clean exit, got code=%d err=%v", code, err)
	}

	stdout, _, _, _ := h.Output()
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if len(lines[0]) != 2000000 || strings.Trim(lines[0], "a") != "" {
		t.Errorf("expected a 2000000 byte line, got %d bytes", len(lines[0]))
	}
	if lines[1] != `{"type":"result","session_id":"abc"}` {
		t.Errorf("expected result line after the long line, got %q", lines[1])
	}
	if lines[2] != "tail" {
		t.Errorf("expected unterminated final line, got %q", lines[2])
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.stdout) != 3 || sink.stdout[2] != "tail" {
		t.Errorf("expected sink to see all 3 lines, got %d", len(sink.stdout))
	}
}

func TestHasExitedWhileRunning(t *testing.T) {
	h, err := Start(context.Background(), "sleep 5", StartOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		_ = h.Kill()
		_, _ = h.WaitForExit()
	}()

	if h.HasExited() {
		t.Error("expected process to still be running")
	}
	if _, _, _, exited := h.Output(); exited {
		t.Error("expected Output to report a running process")
	}
}

func TestKill(t *testing.T) {
	h, err := Start(context.Background(), "sleep 30", StartOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Kill")
	}

	code, _ := h.WaitForExit()
	if code != 1 {
		t.Errorf("expected exit code 1 for a killed process, got %d", code)
	}
	if err := h.Interrupt(); err != nil {
		t.Errorf("expected Interrupt after exit to be a no-op, got %v", err)
	}
}

func TestContextCancelKillsProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := Start(ctx, "sleep 30", StartOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancel()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after context cancel")
	}
	if code, _ := h.WaitForExit(); code == 0 {
		t.Error("expected non-zero exit code after cancel")
	}
}

func TestExecuteDetached(t *testing.T) {
	pid, err := ExecuteDetached(context.Background(), "exit 0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid <= 0 {
		t.Errorf("expected positive pid, got %d", pid)
	}
}

func TestProcessAlive(t *testing.T) {
	h, err := Start(context.Background(), "sleep 5", StartOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ProcessAlive(h.PID()) {
		t.Error("expected running process to be alive")
	}
	_ = h.Kill()
	_, _ = h.WaitForExit()

	if ProcessAlive(0) {
		t.Error("expected pid 0 to be reported dead")
	}
}

func TestOnInterruptRunsCleanupOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{})

	stop := OnInterrupt(ctx, func() { close(called) })
	defer stop()

	cancel()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("expected cleanup to run after cancellation")
	}
}

func TestOnInterruptStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	stop := OnInterrupt(ctx, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	stop()
	stop()
	cancel()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("expected cleanup not to run after stop, ran %d times", calls)
	}
}
