package tools

import (
	"maps"

	"github.com/stephenmfriend/agent-commander/stream"
)

var agentModels = map[string]string{
	"grok":             "opencode/grok-code",
	"grok-code":        "opencode/grok-code",
	"grok-code-fast-1": "opencode/grok-code",
	"big-pickle":       "opencode/big-pickle",
	"gpt-5-nano":       "openai/gpt-5-nano",
	"sonnet":           "anthropic/claude-3-5-sonnet",
	"haiku":            "anthropic/claude-3-5-haiku",
	"opus":             "anthropic/claude-3-opus",
	"gemini-3-pro":     "google/gemini-3-pro",
}

// Agent drives the @link-assistant/agent CLI, which always streams JSON
// and reads its prompt from stdin.
type Agent struct{}

// NewAgent creates the agent tool.
func NewAgent() *Agent {
	return &Agent{}
}

func (a *Agent) Name() string         { return "agent" }
func (a *Agent) DisplayName() string  { return "@link-assistant/agent" }
func (a *Agent) Executable() string   { return "agent" }
func (a *Agent) DefaultModel() string { return "grok-code-fast-1" }

func (a *Agent) Capabilities() Capabilities {
	return Capabilities{JSONOutput: true, JSONInput: true}
}

func (a *Agent) Models() map[string]string { return maps.Clone(agentModels) }

func (a *Agent) MapModel(alias string) string { return mapModel(agentModels, alias) }

func (a *Agent) BuildArgs(opts BuildOptions) []string {
	var args []string

	if opts.Model != "" {
		args = append(args, "--model", a.MapModel(opts.Model))
	}
	if opts.CompactJSON {
		args = append(args, "--compact-json")
	}
	if opts.UseExistingClaudeOAuth {
		args = append(args, "--use-existing-claude-oauth")
	}

	return args
}

func (a *Agent) BuildCommand(opts BuildOptions) string {
	prompt := combinePrompt(opts.SystemPrompt, opts.Prompt)
	return pipedCommandLine(prompt, a.Executable(), a.BuildArgs(opts))
}

func (a *Agent) ParseOutput(text string) []stream.Message {
	return stream.ParseAll(text)
}

func (a *Agent) ExtractSessionID(text string) (string, bool) {
	return firstString(text, "session_id")
}

// ExtractUsage sums the part.tokens and part.cost of every step_finish
// event and counts the steps.
func (a *Agent) ExtractUsage(text string) Usage {
	var u Usage
	for _, msg := range a.ParseOutput(text) {
		if stream.Type(msg) != "step_finish" {
			continue
		}
		if _, ok := stream.Lookup(msg, "part"); !ok {
			continue
		}
		u.Steps++

		addUint(&u.InputTokens, msg, "part", "tokens", "input")
		addUint(&u.OutputTokens, msg, "part", "tokens", "output")
		addUint(&u.ReasoningTokens, msg, "part", "tokens", "reasoning")
		addUint(&u.CacheReadTokens, msg, "part", "tokens", "cache", "read")
		addUint(&u.CacheWriteTokens, msg, "part", "tokens", "cache", "write")

		if cost, ok := stream.LookupFloat(msg, "part", "cost"); ok {
			u.Cost += cost
		}
	}
	return u
}

func (a *Agent) DetectErrors(text string) ErrorResult {
	return detectTypedError(text, "error", "step_error")
}
