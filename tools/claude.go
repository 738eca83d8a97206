package tools

import (
	"maps"

	"github.com/stephenmfriend/agent-commander/stream"
)

var claudeModels = map[string]string{
	"sonnet":    "claude-sonnet-4-5-20250929",
	"opus":      "claude-opus-4-5-20251101",
	"haiku":     "claude-haiku-4-5-20251001",
	"haiku-3-5": "claude-3-5-haiku-20241022",
	"haiku-3":   "claude-3-haiku-20240307",
}

// Claude drives the Claude Code CLI.
type Claude struct{}

// NewClaude creates the Claude Code tool.
func NewClaude() *Claude {
	return &Claude{}
}

func (c *Claude) Name() string         { return "claude" }
func (c *Claude) DisplayName() string  { return "Claude Code CLI" }
func (c *Claude) Executable() string   { return "claude" }
func (c *Claude) DefaultModel() string { return "sonnet" }

func (c *Claude) Capabilities() Capabilities {
	return Capabilities{JSONOutput: true, JSONInput: true, SystemPrompt: true, Resume: true}
}

func (c *Claude) Models() map[string]string { return maps.Clone(claudeModels) }

func (c *Claude) MapModel(alias string) string { return mapModel(claudeModels, alias) }

// BuildArgs always skips permission prompts; the remaining flags follow
// the order the CLI documents them in.
func (c *Claude) BuildArgs(opts BuildOptions) []string {
	args := []string{"--dangerously-skip-permissions"}

	if opts.Model != "" {
		args = append(args, "--model", c.MapModel(opts.Model))
	}
	if opts.FallbackModel != "" {
		args = append(args, "--fallback-model", c.MapModel(opts.FallbackModel))
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--system-prompt", opts.SystemPrompt)
	}
	if opts.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.AppendSystemPrompt)
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	if opts.Print {
		args = append(args, "-p")
	}
	if opts.JSON {
		args = append(args, "--output-format", "stream-json")
	}
	if opts.JSONInput {
		args = append(args, "--input-format", "stream-json")
	}
	if opts.ReplayUserMessages {
		args = append(args, "--replay-user-messages")
	}
	if opts.SessionID != "" {
		args = append(args, "--session-id", opts.SessionID)
	}
	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	}
	if opts.ForkSession {
		args = append(args, "--fork-session")
	}

	return args
}

func (c *Claude) BuildCommand(opts BuildOptions) string {
	return commandLine(c.Executable(), c.BuildArgs(opts))
}

func (c *Claude) ParseOutput(text string) []stream.Message {
	return stream.ParseAll(text)
}

func (c *Claude) ExtractSessionID(text string) (string, bool) {
	return firstString(text, "session_id")
}

// ExtractUsage sums message.usage across assistant messages.
func (c *Claude) ExtractUsage(text string) Usage {
	var u Usage
	for _, msg := range c.ParseOutput(text) {
		if _, ok := stream.Lookup(msg, "message", "usage"); !ok {
			continue
		}
		addUint(&u.InputTokens, msg, "message", "usage", "input_tokens")
		addUint(&u.OutputTokens, msg, "message", "usage", "output_tokens")
		addUint(&u.CacheCreationTokens, msg, "message", "usage", "cache_creation_input_tokens")
		addUint(&u.CacheReadTokens, msg, "message", "usage", "cache_read_input_tokens")
	}
	return u
}

func (c *Claude) DetectErrors(text string) ErrorResult {
	return detectTypedError(text, "error")
}
