package tools

import (
	"maps"

	"github.com/stephenmfriend/agent-commander/stream"
)

var opencodeModels = map[string]string{
	"gpt4":             "openai/gpt-4",
	"gpt4o":            "openai/gpt-4o",
	"claude":           "anthropic/claude-3-5-sonnet",
	"sonnet":           "anthropic/claude-3-5-sonnet",
	"opus":             "anthropic/claude-3-opus",
	"gemini":           "google/gemini-pro",
	"grok":             "opencode/grok-code",
	"grok-code":        "opencode/grok-code",
	"grok-code-fast-1": "opencode/grok-code",
}

// OpenCode drives the OpenCode CLI.
type OpenCode struct{}

// NewOpenCode creates the OpenCode tool.
func NewOpenCode() *OpenCode {
	return &OpenCode{}
}

func (o *OpenCode) Name() string         { return "opencode" }
func (o *OpenCode) DisplayName() string  { return "OpenCode CLI" }
func (o *OpenCode) Executable() string   { return "opencode" }
func (o *OpenCode) DefaultModel() string { return "grok-code-fast-1" }

func (o *OpenCode) Capabilities() Capabilities {
	return Capabilities{JSONOutput: true, JSONInput: true, Resume: true}
}

func (o *OpenCode) Models() map[string]string { return maps.Clone(opencodeModels) }

func (o *OpenCode) MapModel(alias string) string { return mapModel(opencodeModels, alias) }

func (o *OpenCode) BuildArgs(opts BuildOptions) []string {
	args := []string{"run"}

	if opts.Model != "" {
		args = append(args, "--model", o.MapModel(opts.Model))
	}
	if opts.JSON {
		args = append(args, "--format", "json")
	}
	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	}

	return args
}

func (o *OpenCode) BuildCommand(opts BuildOptions) string {
	prompt := combinePrompt(opts.SystemPrompt, opts.Prompt)
	return pipedCommandLine(prompt, o.Executable(), o.BuildArgs(opts))
}

func (o *OpenCode) ParseOutput(text string) []stream.Message {
	return stream.ParseAll(text)
}

func (o *OpenCode) ExtractSessionID(text string) (string, bool) {
	return firstString(text, "session_id")
}

func (o *OpenCode) ExtractUsage(text string) Usage {
	var u Usage
	for _, msg := range o.ParseOutput(text) {
		addUint(&u.InputTokens, msg, "usage", "input_tokens")
		addUint(&u.OutputTokens, msg, "usage", "output_tokens")
	}
	return u
}

func (o *OpenCode) DetectErrors(text string) ErrorResult {
	return detectTypedError(text, "error")
}
