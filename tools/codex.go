package tools

import (
	"maps"

	"github.com/stephenmfriend/agent-commander/stream"
)

var codexModels = map[string]string{
	"gpt5":       "gpt-5",
	"gpt5-codex": "gpt-5-codex",
	"o3":         "o3",
	"o3-mini":    "o3-mini",
	"gpt4":       "gpt-4",
	"gpt4o":      "gpt-4o",
	"claude":     "claude-3-5-sonnet",
	"sonnet":     "claude-3-5-sonnet",
	"opus":       "claude-3-opus",
}

// Codex drives the OpenAI Codex CLI. The prompt is piped on stdin.
type Codex struct{}

// NewCodex creates the Codex tool.
func NewCodex() *Codex {
	return &Codex{}
}

func (c *Codex) Name() string         { return "codex" }
func (c *Codex) DisplayName() string  { return "Codex CLI" }
func (c *Codex) Executable() string   { return "codex" }
func (c *Codex) DefaultModel() string { return "gpt-5" }

func (c *Codex) Capabilities() Capabilities {
	return Capabilities{JSONOutput: true, JSONInput: true, Resume: true}
}

func (c *Codex) Models() map[string]string { return maps.Clone(codexModels) }

func (c *Codex) MapModel(alias string) string { return mapModel(codexModels, alias) }

func (c *Codex) BuildArgs(opts BuildOptions) []string {
	args := []string{"exec"}

	if opts.Resume != "" {
		args = append(args, "resume", opts.Resume)
	}
	if opts.Model != "" {
		args = append(args, "--model", c.MapModel(opts.Model))
	}
	if opts.JSON {
		args = append(args, "--json")
	}

	return append(args, "--skip-git-repo-check", "--dangerously-bypass-approvals-and-sandbox")
}

func (c *Codex) BuildCommand(opts BuildOptions) string {
	prompt := combinePrompt(opts.SystemPrompt, opts.Prompt)
	return pipedCommandLine(prompt, c.Executable(), c.BuildArgs(opts))
}

func (c *Codex) ParseOutput(text string) []stream.Message {
	return stream.ParseAll(text)
}

// ExtractSessionID prefers thread_id, which newer Codex releases emit on
// thread.started, over the older session_id.
func (c *Codex) ExtractSessionID(text string) (string, bool) {
	return firstString(text, "thread_id", "session_id")
}

func (c *Codex) ExtractUsage(text string) Usage {
	var u Usage
	for _, msg := range c.ParseOutput(text) {
		addUint(&u.InputTokens, msg, "usage", "input_tokens")
		addUint(&u.OutputTokens, msg, "usage", "output_tokens")
	}
	return u
}

func (c *Codex) DetectErrors(text string) ErrorResult {
	return detectTypedError(text, "error")
}
