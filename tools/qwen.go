package tools

import (
	"maps"

	"github.com/stephenmfriend/agent-commander/stream"
)

var qwenModels = map[string]string{
	"qwen3-coder":        "qwen3-coder-480a35",
	"qwen3-coder-480a35": "qwen3-coder-480a35",
	"qwen3-coder-30ba3":  "qwen3-coder-30ba3",
	"coder":              "qwen3-coder-480a35",
	"gpt-4o":             "gpt-4o",
	"gpt-4":              "gpt-4",
	"sonnet":             "claude-sonnet-4",
	"opus":               "claude-opus-4",
}

// Qwen drives the Qwen Code CLI. It streams JSON by default and folds the
// system prompt into the prompt.
type Qwen struct{}

// NewQwen creates the Qwen Code tool.
func NewQwen() *Qwen {
	return &Qwen{}
}

func (q *Qwen) Name() string         { return "qwen" }
func (q *Qwen) DisplayName() string  { return "Qwen Code CLI" }
func (q *Qwen) Executable() string   { return "qwen" }
func (q *Qwen) DefaultModel() string { return "qwen3-coder-480a35" }

func (q *Qwen) Capabilities() Capabilities {
	return Capabilities{JSONOutput: true, JSONInput: true, Resume: true}
}

func (q *Qwen) Models() map[string]string { return maps.Clone(qwenModels) }

func (q *Qwen) MapModel(alias string) string { return mapModel(qwenModels, alias) }

func (q *Qwen) BuildArgs(opts BuildOptions) []string {
	var args []string

	if opts.Prompt != "" {
		args = append(args, "-p", opts.Prompt)
	}
	if opts.Model != "" {
		args = append(args, "--model", q.MapModel(opts.Model))
	}

	streaming := !opts.SingleJSON
	if streaming {
		args = append(args, "--output-format", "stream-json")
	} else {
		args = append(args, "--output-format", "json")
	}
	if opts.IncludePartialMessages && streaming {
		args = append(args, "--include-partial-messages")
	}

	if !opts.NoYolo {
		args = append(args, "--yolo")
	}

	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	} else if opts.ContinueSession {
		args = append(args, "--continue")
	}

	if opts.AllFiles {
		args = append(args, "--all-files")
	}
	for _, dir := range opts.IncludeDirectories {
		args = append(args, "--include-directories", dir)
	}

	return args
}

func (q *Qwen) BuildCommand(opts BuildOptions) string {
	opts.Prompt = combinePrompt(opts.SystemPrompt, opts.Prompt)
	opts.SystemPrompt = ""
	return commandLine(q.Executable(), q.BuildArgs(opts))
}

func (q *Qwen) ParseOutput(text string) []stream.Message {
	return stream.ParseAll(text)
}

func (q *Qwen) ExtractSessionID(text string) (string, bool) {
	return firstString(text, "session_id", "sessionId")
}

// ExtractUsage reads top-level usage and the usage block nested in result
// messages. The total is derived when missing.
func (q *Qwen) ExtractUsage(text string) Usage {
	var u Usage
	for _, msg := range q.ParseOutput(text) {
		addUint(&u.InputTokens, msg, "usage", "input_tokens")
		addUint(&u.OutputTokens, msg, "usage", "output_tokens")
		addUint(&u.TotalTokens, msg, "usage", "total_tokens")

		addUint(&u.InputTokens, msg, "result", "usage", "input_tokens")
		addUint(&u.OutputTokens, msg, "result", "usage", "output_tokens")
		addUint(&u.TotalTokens, msg, "result", "usage", "total_tokens")
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

// DetectErrors matches type "error" first, then a string error field.
func (q *Qwen) DetectErrors(text string) ErrorResult {
	for _, msg := range q.ParseOutput(text) {
		if stream.Type(msg) == "error" {
			message, ok := stream.LookupString(msg, "message")
			if !ok {
				message, ok = stream.LookupString(msg, "error")
			}
			if !ok {
				message = "Unknown error"
			}
			return ErrorResult{HasError: true, Type: "error", Message: message}
		}
		if errText, ok := stream.LookupString(msg, "error"); ok {
			return ErrorResult{HasError: true, Type: "error", Message: errText}
		}
	}
	return ErrorResult{}
}
