// Package command renders the shell command lines used to launch and stop
// agent CLIs, optionally inside a screen session or docker container.
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/stephenmfriend/agent-commander/tools"
)

// DefaultImage is the container image used for docker isolation.
const DefaultImage = "node:18-slim"

// Options describes one agent invocation.
type Options struct {
	Tool             string
	WorkingDirectory string
	Prompt           string
	SystemPrompt     string
	Model            string
	JSON             bool
	Resume           string

	// Isolation is "none", "screen" or "docker". Anything else runs unwrapped.
	Isolation     string
	ScreenName    string
	ContainerName string
	Detached      bool

	// Image overrides DefaultImage for docker isolation.
	Image string

	// Extra carries tool specific flags. Prompt, SystemPrompt, Model, JSON
	// and Resume above take precedence over the same fields here.
	Extra tools.BuildOptions
}

var now = time.Now

// BuildAgentCommand returns the full command line for opts. Tools known to
// reg build their own invocation; unknown tools get a generic
// --prompt/--system-prompt form.
func BuildAgentCommand(reg *tools.Registry, opts Options) string {
	base := baseCommand(reg, opts)

	full := fmt.Sprintf(`bash -c "cd %s && %s"`,
		tools.EscapeForBashC(opts.WorkingDirectory), tools.EscapeForBashC(base))

	switch opts.Isolation {
	case "screen":
		return screenCommand(full, opts.ScreenName, opts.Detached)
	case "docker":
		return dockerCommand(full, opts.ContainerName, opts.WorkingDirectory, opts.Image, opts.Detached)
	default:
		return full
	}
}

func baseCommand(reg *tools.Registry, opts Options) string {
	if reg != nil && reg.Has(opts.Tool) {
		tool, err := reg.Get(opts.Tool)
		if err == nil {
			build := opts.Extra
			build.Prompt = opts.Prompt
			build.SystemPrompt = opts.SystemPrompt
			build.Model = opts.Model
			build.JSON = opts.JSON
			build.Resume = opts.Resume
			return tool.BuildCommand(build)
		}
	}
	return toolCommand(opts.Tool, opts.Prompt, opts.SystemPrompt)
}

func toolCommand(tool, prompt, systemPrompt string) string {
	var b strings.Builder
	b.WriteString(tool)
	if prompt != "" {
		fmt.Fprintf(&b, ` --prompt "%s"`, tools.EscapeSingleQuotes(prompt))
	}
	if systemPrompt != "" {
		fmt.Fprintf(&b, ` --system-prompt "%s"`, tools.EscapeSingleQuotes(systemPrompt))
	}
	return b.String()
}

// DefaultName returns a session or container name derived from the
// current time.
func DefaultName() string {
	return fmt.Sprintf("agent-%d", now().UnixMilli())
}

func screenCommand(cmd, name string, detached bool) string {
	if name == "" {
		name = DefaultName()
	}
	mode := "-S"
	if detached {
		mode = "-dmS"
	}
	return fmt.Sprintf(`screen %s "%s" bash -c '%s'`, mode, name, tools.EscapeSingleQuotes(cmd))
}

func dockerCommand(cmd, name, workDir, image string, detached bool) string {
	if name == "" {
		name = DefaultName()
	}
	if image == "" {
		image = DefaultImage
	}

	var b strings.Builder
	b.WriteString("docker run")
	if detached {
		b.WriteString(" -d")
	} else {
		b.WriteString(" -it")
	}
	fmt.Fprintf(&b, ` --name "%s"`, name)
	fmt.Fprintf(&b, ` -v "%s:%s"`, workDir, workDir)
	fmt.Fprintf(&b, ` -w "%s"`, workDir)
	b.WriteString(" " + image)
	fmt.Fprintf(&b, ` bash -c '%s'`, tools.EscapeSingleQuotes(cmd))
	return b.String()
}

// BuildScreenStopCommand quits the named screen session.
func BuildScreenStopCommand(name string) string {
	return fmt.Sprintf(`screen -S "%s" -X quit`, name)
}

// BuildDockerStopCommand stops and removes the named container.
func BuildDockerStopCommand(name string) string {
	return fmt.Sprintf(`docker stop "%s" && docker rm "%s"`, name, name)
}

// BuildPipedCommand feeds input to cmd on stdin.
func BuildPipedCommand(input, cmd string) string {
	return fmt.Sprintf(`printf '%%s' '%s' | %s`, tools.EscapeSingleQuotes(input), cmd)
}

// BuildScreenListCommand lists screen sessions.
func BuildScreenListCommand() string {
	return "screen -ls"
}
