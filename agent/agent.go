// Package agent controls one run of an agent CLI: it builds the command,
// launches it directly or inside screen or docker, and collects the
// output, parsed messages and session id when the run is stopped.
package agent

import (
	"fmt"

	"github.com/stephenmfriend/agent-commander/stream"
	"github.com/stephenmfriend/agent-commander/tools"
)

// Isolation selects how the agent process is wrapped.
type Isolation string

const (
	IsolationNone   Isolation = "none"
	IsolationScreen Isolation = "screen"
	IsolationDocker Isolation = "docker"
)

// Isolations lists the supported modes in display order.
var Isolations = []Isolation{IsolationNone, IsolationScreen, IsolationDocker}

// ParseIsolation validates a mode name. The empty string means none.
func ParseIsolation(s string) (Isolation, error) {
	switch Isolation(s) {
	case "", IsolationNone:
		return IsolationNone, nil
	case IsolationScreen, IsolationDocker:
		return Isolation(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedIsolation, s)
	}
}

// Options configures a Controller. It is copied when the controller is
// built and never changes afterwards.
type Options struct {
	// Tool is the agent CLI name, e.g. "claude".
	Tool string

	// WorkingDirectory is where the agent runs.
	WorkingDirectory string

	Prompt             string
	SystemPrompt       string
	AppendSystemPrompt string
	Model              string
	FallbackModel      string

	Isolation     Isolation
	ScreenName    string
	ContainerName string

	// Image overrides the docker image for docker isolation.
	Image string

	// JSON enables NDJSON output and message parsing.
	JSON bool

	Resume             string
	SessionID          string
	ForkSession        bool
	Verbose            bool
	ReplayUserMessages bool

	// Extra carries flags for tools other than claude; see tools.BuildOptions.
	Extra tools.BuildOptions
}

// StartOptions configures Controller.Start.
type StartOptions struct {
	// DryRun prints the command without running it.
	DryRun bool

	// Detached starts the process without keeping a handle to it.
	Detached bool

	// Attached echoes the process output while it runs.
	Attached bool
}

// StopOptions configures Controller.Stop.
type StopOptions struct {
	DryRun bool
}

// Result is what Stop collects from a run.
type Result struct {
	ExitCode int

	// PlainOutput is stdout, followed by a newline and stderr when stderr
	// is not empty.
	PlainOutput string

	// Messages holds the parsed NDJSON messages in JSON mode. Nil when none
	// were found.
	Messages []stream.Message

	// SessionID is the tool's session identifier, if it reported one.
	SessionID string

	Usage tools.Usage
	Error tools.ErrorResult
}
