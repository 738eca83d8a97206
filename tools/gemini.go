package tools

import (
	"maps"

	"github.com/stephenmfriend/agent-commander/stream"
)

var geminiModels = map[string]string{
	"flash":        "gemini-2.5-flash",
	"2.5-flash":    "gemini-2.5-flash",
	"pro":          "gemini-2.5-pro",
	"2.5-pro":      "gemini-2.5-pro",
	"lite":         "gemini-2.5-flash-lite",
	"2.5-lite":     "gemini-2.5-flash-lite",
	"3-flash":      "gemini-3-flash-preview",
	"3-pro":        "gemini-3-pro-preview",
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// Gemini drives the Gemini CLI. It has no system prompt flag, so the
// system prompt is folded into the prompt.
type Gemini struct{}

// NewGemini creates the Gemini tool.
func NewGemini() *Gemini {
	return &Gemini{}
}

func (g *Gemini) Name() string         { return "gemini" }
func (g *Gemini) DisplayName() string  { return "Gemini CLI" }
func (g *Gemini) Executable() string   { return "gemini" }
func (g *Gemini) DefaultModel() string { return "gemini-2.5-flash" }

func (g *Gemini) Capabilities() Capabilities {
	return Capabilities{JSONOutput: true, Resume: true}
}

func (g *Gemini) Models() map[string]string { return maps.Clone(geminiModels) }

func (g *Gemini) MapModel(alias string) string { return mapModel(geminiModels, alias) }

func (g *Gemini) BuildArgs(opts BuildOptions) []string {
	var args []string

	if opts.Model != "" {
		args = append(args, "-m", g.MapModel(opts.Model))
	}
	if !opts.NoYolo {
		args = append(args, "--yolo")
	}
	if opts.Sandbox {
		args = append(args, "--sandbox")
	}
	if opts.Debug {
		args = append(args, "-d")
	}
	if opts.Checkpointing {
		args = append(args, "--checkpointing")
	}
	if opts.JSON {
		args = append(args, "--output-format", "stream-json")
	}
	if opts.Prompt != "" {
		if opts.Interactive {
			args = append(args, "-i", opts.Prompt)
		} else {
			args = append(args, "-p", opts.Prompt)
		}
	}

	return args
}

func (g *Gemini) BuildCommand(opts BuildOptions) string {
	opts.Prompt = combinePrompt(opts.SystemPrompt, opts.Prompt)
	opts.SystemPrompt = ""
	return commandLine(g.Executable(), g.BuildArgs(opts))
}

func (g *Gemini) ParseOutput(text string) []stream.Message {
	return stream.ParseAll(text)
}

func (g *Gemini) ExtractSessionID(text string) (string, bool) {
	return firstString(text, "session_id", "conversation_id")
}

// ExtractUsage accepts both snake_case and camelCase usage objects as well
// as the API's usageMetadata block. The total is derived when missing.
func (g *Gemini) ExtractUsage(text string) Usage {
	var u Usage
	for _, msg := range g.ParseOutput(text) {
		addUint(&u.InputTokens, msg, "usage", "input_tokens")
		addUint(&u.OutputTokens, msg, "usage", "output_tokens")
		addUint(&u.TotalTokens, msg, "usage", "total_tokens")
		addUint(&u.InputTokens, msg, "usage", "inputTokens")
		addUint(&u.OutputTokens, msg, "usage", "outputTokens")
		addUint(&u.TotalTokens, msg, "usage", "totalTokens")

		addUint(&u.InputTokens, msg, "usageMetadata", "promptTokenCount")
		addUint(&u.OutputTokens, msg, "usageMetadata", "candidatesTokenCount")
		addUint(&u.TotalTokens, msg, "usageMetadata", "totalTokenCount")
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

// DetectErrors matches type "error" or any message carrying an error key.
func (g *Gemini) DetectErrors(text string) ErrorResult {
	for _, msg := range g.ParseOutput(text) {
		t := stream.Type(msg)
		if t != "error" && !stream.Has(msg, "error") {
			continue
		}
		if t == "" {
			t = "error"
		}
		message, ok := stream.LookupString(msg, "message")
		if !ok {
			message, ok = stream.LookupString(msg, "error")
		}
		if !ok {
			message = "Unknown error"
		}
		return ErrorResult{HasError: true, Type: t, Message: message}
	}
	return ErrorResult{}
}
