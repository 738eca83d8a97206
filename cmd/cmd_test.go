package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/stephenmfriend/agent-commander/agent"
	"github.com/stephenmfriend/agent-commander/container"
	"github.com/stephenmfriend/agent-commander/executor"
	"github.com/stephenmfriend/agent-commander/session"
	"github.com/stephenmfriend/agent-commander/tools"
)

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		// cobra falls back to os.Args when args is nil.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func wantExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var ee exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected exitError with code %d, got %v", code, err)
	}
	if ee.code != code {
		t.Errorf("expected exit code %d, got %d", code, ee.code)
	}
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer

	if got := exitCode(&stderr, nil); got != 0 {
		t.Errorf("nil error: got %d", got)
	}
	if got := exitCode(&stderr, exitError{code: 42}); got != 42 {
		t.Errorf("exitError: got %d", got)
	}
	if stderr.Len() != 0 {
		t.Errorf("exit codes should print nothing, got %q", stderr.String())
	}

	if got := exitCode(&stderr, errors.New("boom")); got != 1 {
		t.Errorf("plain error: got %d", got)
	}
	if stderr.String() != "Error: boom\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}

func TestIsolationValue(t *testing.T) {
	v := newIsolationValue("none", agent.Isolations...)
	if v.Type() != "none|screen|docker" {
		t.Errorf("unexpected type %q", v.Type())
	}

	if err := v.Set("docker"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	iso, err := v.Validate()
	if err != nil || iso != agent.IsolationDocker {
		t.Errorf("got %q, %v", iso, err)
	}

	_ = v.Set("kvm")
	if _, err := v.Validate(); err == nil || err.Error() != "--isolation must be one of: none, screen, docker" {
		t.Errorf("unexpected error %v", err)
	}

	stop := newIsolationValue("", agent.IsolationScreen, agent.IsolationDocker)
	_ = stop.Set("none")
	if _, err := stop.Validate(); err == nil || !strings.Contains(err.Error(), "screen, docker") {
		t.Errorf("stop should reject none, got %v", err)
	}
}

func TestStartValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "missing everything",
			args: nil,
			want: []string{"--tool is required", "--working-directory is required"},
		},
		{
			name: "screen without name",
			args: []string{"--tool", "claude", "--working-directory", "/tmp", "--isolation", "screen"},
			want: []string{"--screen-name is required for screen isolation"},
		},
		{
			name: "docker without name",
			args: []string{"--tool", "claude", "--working-directory", "/tmp", "--isolation", "docker"},
			want: []string{"--container-name is required for docker isolation"},
		},
		{
			name: "bad isolation",
			args: []string{"--tool", "claude", "--working-directory", "/tmp", "--isolation", "vm"},
			want: []string{"--isolation must be one of: none, screen, docker"},
		},
		{
			name: "tui with screen",
			args: []string{"--tool", "claude", "--working-directory", "/tmp", "--isolation", "screen", "--screen-name", "s", "--tui"},
			want: []string{"--tui requires --isolation none"},
		},
		{
			name: "tui detached",
			args: []string{"--tool", "claude", "--working-directory", "/tmp", "--tui", "--detached"},
			want: []string{"--tui cannot be combined with --detached"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runCmd(t, newStartCmd(), tt.args...)
			wantExitCode(t, err, 1)

			if !strings.HasPrefix(stderr, "Error: Invalid options\n") {
				t.Errorf("expected invalid options header, got %q", stderr)
			}
			for _, w := range tt.want {
				if !strings.Contains(stderr, "  - "+w+"\n") {
					t.Errorf("expected %q in stderr, got %q", w, stderr)
				}
			}
			if !strings.Contains(stderr, `Run "agent-commander start --help"`) {
				t.Errorf("expected help hint, got %q", stderr)
			}
		})
	}
}

func TestStartDryRun(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := runCmd(t, newStartCmd(),
		"--tool", "claude", "--working-directory", dir, "--prompt", "hello", "--model", "opus", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout, executor.DryRunHeader) {
		t.Errorf("expected dry run header, got %q", stdout)
	}
	if !strings.Contains(stdout, "claude") || !strings.Contains(stdout, "cd "+dir) {
		t.Errorf("expected claude command in %s, got %q", dir, stdout)
	}
}

func TestStartConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := "tool: codex\nisolation: docker\ncontainer_image: golang:1.25\n"
	if err := os.WriteFile(filepath.Join(dir, ".agent-commander.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCmd(t, newStartCmd(),
		"--working-directory", dir, "--prompt", "hi", "--container-name", "c1", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"codex", "docker run", `--name "c1"`, "golang:1.25"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in %q", want, stdout)
		}
	}

	// Flags win over the config.
	stdout, _, err = runCmd(t, newStartCmd(),
		"--tool", "claude", "--isolation", "none", "--working-directory", dir, "--prompt", "hi", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(stdout, "docker run") || !strings.Contains(stdout, "claude") {
		t.Errorf("expected flags to override config, got %q", stdout)
	}
}

func TestStopValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing isolation", nil, "--isolation is required"},
		{"bad isolation", []string{"--isolation", "none"}, "--isolation must be one of: screen, docker"},
		{"screen without name", []string{"--isolation", "screen"}, "--screen-name is required for screen isolation"},
		{"docker without name", []string{"--isolation", "docker"}, "--container-name is required for docker isolation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runCmd(t, newStopCmd(), tt.args...)
			wantExitCode(t, err, 1)
			if !strings.Contains(stderr, "  - "+tt.want) {
				t.Errorf("expected %q in %q", tt.want, stderr)
			}
		})
	}
}

func TestStopDryRun(t *testing.T) {
	stdout, _, err := runCmd(t, newStopCmd(), "--isolation", "docker", "--container-name", "c1", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `docker stop "c1" && docker rm "c1"`) {
		t.Errorf("expected docker stop command, got %q", stdout)
	}
	if !strings.HasSuffix(stdout, "Agent stopped successfully\n") {
		t.Errorf("expected success message, got %q", stdout)
	}
}

func TestListSessions(t *testing.T) {
	store := session.NewStore(t.TempDir())

	var out bytes.Buffer
	if err := listSessions(&out, store, false); err != nil {
		t.Fatal(err)
	}
	if out.String() != "No detached agents recorded\n" {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := listSessions(&out, store, true); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", out.String())
	}

	err := store.Add(session.Record{
		Name:             "review",
		Isolation:        "screen",
		Tool:             "codex",
		WorkingDirectory: "/src/app",
		StartedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := listSessions(&out, store, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ISOLATION", "review", "codex", "2026-01-02 03:04:05", "/src/app"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in %q", want, out.String())
		}
	}
}

func TestListTools(t *testing.T) {
	var out bytes.Buffer
	if err := listTools(&out, tools.NewRegistry(), "text", false); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"agent", "claude", "codex", "gemini", "opencode", "qwen"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("expected %s in tools output", name)
		}
	}
	if !strings.Contains(out.String(), "json-output") {
		t.Error("expected capabilities column")
	}

	out.Reset()
	if err := listTools(&out, tools.NewRegistry(), "yaml", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "name: claude") || !strings.Contains(out.String(), "models:") {
		t.Errorf("unexpected yaml output %q", out.String())
	}

	if err := listTools(&out, tools.NewRegistry(), "xml", false); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestCapabilityList(t *testing.T) {
	if got := capabilityList(tools.Capabilities{}); got != "-" {
		t.Errorf("got %q", got)
	}
	got := capabilityList(tools.Capabilities{JSONOutput: true, Resume: true})
	if got != "json-output,resume" {
		t.Errorf("got %q", got)
	}
}

type fakeInspector struct {
	infos map[string]*container.Info
}

func (f fakeInspector) Inspect(_ context.Context, name string) (*container.Info, error) {
	if info, ok := f.infos[name]; ok {
		return info, nil
	}
	return &container.Info{Name: name, Status: container.StatusNotFound}, nil
}

func (f fakeInspector) Close() error { return nil }

func fakeChecker(screenOut string, alivePIDs ...int) *checker {
	return &checker{
		screenList: func(context.Context) (string, error) { return screenOut, nil },
		newInspector: func() (container.Inspector, error) {
			return fakeInspector{infos: map[string]*container.Info{
				"web": {Name: "web", Status: container.StatusRunning},
				"old": {Name: "old", Status: container.StatusExited, ExitCode: 137},
			}}, nil
		},
		processAlive: func(pid int) bool {
			for _, p := range alivePIDs {
				if p == pid {
					return true
				}
			}
			return false
		},
	}
}

const screenListing = "There are screens on:\n\t1234.review\t(Detached)\n1 Socket in /run/screen/S-dev.\n"

func TestCheckerCheck(t *testing.T) {
	c := fakeChecker(screenListing, 99)
	ctx := context.Background()

	tests := []struct {
		iso   agent.Isolation
		name  string
		pid   int
		alive bool
		state string
	}{
		{agent.IsolationScreen, "review", 0, true, "running (Detached)"},
		{agent.IsolationScreen, "gone", 0, false, "not found"},
		{agent.IsolationDocker, "web", 0, true, "running"},
		{agent.IsolationDocker, "old", 0, false, "exited (137)"},
		{agent.IsolationDocker, "missing", 0, false, "not-found"},
		{agent.IsolationNone, "99", 99, true, "running"},
		{agent.IsolationNone, "100", 100, false, "exited"},
	}

	for _, tt := range tests {
		l, err := c.check(ctx, tt.iso, tt.name, tt.pid)
		if err != nil {
			t.Fatalf("%s/%s: %v", tt.iso, tt.name, err)
		}
		if l.Alive != tt.alive || l.State != tt.state {
			t.Errorf("%s/%s: got alive=%v state=%q, want %v %q", tt.iso, tt.name, l.Alive, l.State, tt.alive, tt.state)
		}
	}
}

func TestStatusSingle(t *testing.T) {
	o := &statusOptions{isolation: newIsolationValue("", agent.IsolationScreen, agent.IsolationDocker)}
	cmd := &cobra.Command{RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd, o, fakeChecker(screenListing))
	}}

	_ = o.isolation.Set("screen")
	o.screenName = "review"
	stdout, _, err := runCmd(t, cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "Screen session review: running (Detached)\n" {
		t.Errorf("unexpected output %q", stdout)
	}

	o.screenName = "gone"
	stdout, _, err = runCmd(t, cmd)
	wantExitCode(t, err, 1)
	if !strings.Contains(stdout, "not found") {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestStatusAllPrune(t *testing.T) {
	store := session.NewStore(t.TempDir())
	for _, r := range []session.Record{
		{Name: "review", Isolation: "screen", Tool: "codex"},
		{Name: "gone", Isolation: "screen", Tool: "claude"},
		{Name: "web", Isolation: "docker", Tool: "gemini"},
	} {
		if err := store.Add(r); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if err := statusAll(context.Background(), &out, store, fakeChecker(screenListing), true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"review", "running (Detached)", "gone", "not found", "web"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in %q", want, out.String())
		}
	}

	records, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected the dead session to be pruned, got %d records", len(records))
	}
	if _, found, _ := store.Get("screen", "gone"); found {
		t.Error("expected gone to be pruned")
	}
}
