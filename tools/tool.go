// Package tools describes the agent CLIs that agent-commander can drive.
//
// Each supported executable speaks its own flag dialect and emits its own
// NDJSON shapes. A Tool hides those differences behind one interface so
// the controller can build invocations and read results without knowing
// which CLI it is talking to.
package tools

import "github.com/stephenmfriend/agent-commander/stream"

// Tool is the capability interface implemented by every supported CLI.
type Tool interface {
	// Name is the registry key, e.g. "claude".
	Name() string

	// DisplayName is a human readable name, e.g. "Claude Code CLI".
	DisplayName() string

	// Executable is the binary invoked on the command line.
	Executable() string

	// DefaultModel is used when no model is requested.
	DefaultModel() string

	// Capabilities reports which optional features the CLI supports.
	Capabilities() Capabilities

	// Models returns the alias to model id table.
	Models() map[string]string

	// MapModel resolves an alias to a full model id. Unknown names pass
	// through unchanged.
	MapModel(alias string) string

	// BuildArgs returns the argument vector for opts.
	BuildArgs(opts BuildOptions) []string

	// BuildCommand returns a shell command string running the CLI.
	BuildCommand(opts BuildOptions) string

	// ParseOutput decodes the NDJSON messages in text.
	ParseOutput(text string) []stream.Message

	// ExtractSessionID finds the session identifier in text.
	ExtractSessionID(text string) (string, bool)

	// ExtractUsage sums token and cost counters found in text.
	ExtractUsage(text string) Usage

	// DetectErrors reports the first error message found in text.
	DetectErrors(text string) ErrorResult
}

// Capabilities describes optional features of a CLI.
type Capabilities struct {
	JSONOutput   bool `json:"json_output" yaml:"json_output"`
	JSONInput    bool `json:"json_input" yaml:"json_input"`
	SystemPrompt bool `json:"system_prompt" yaml:"system_prompt"`
	Resume       bool `json:"resume" yaml:"resume"`
}

// BuildOptions is the union of flags understood by the supported CLIs.
// Each tool reads the fields that apply to it and ignores the rest.
type BuildOptions struct {
	Prompt       string
	SystemPrompt string
	Model        string
	JSON         bool
	Resume       string

	// claude
	AppendSystemPrompt string
	FallbackModel      string
	Print              bool
	Verbose            bool
	JSONInput          bool
	ReplayUserMessages bool
	SessionID          string
	ForkSession        bool

	// agent
	CompactJSON            bool
	UseExistingClaudeOAuth bool

	// gemini and qwen run with auto-approval unless NoYolo is set.
	NoYolo bool

	// gemini
	Sandbox       bool
	Debug         bool
	Checkpointing bool
	Interactive   bool

	// qwen
	SingleJSON             bool
	IncludePartialMessages bool
	ContinueSession        bool
	AllFiles               bool
	IncludeDirectories     []string
}

// Usage holds token and cost counters summed over a run. Tools fill only
// the fields their output reports.
type Usage struct {
	InputTokens         uint64  `json:"input_tokens"`
	OutputTokens        uint64  `json:"output_tokens"`
	TotalTokens         uint64  `json:"total_tokens,omitempty"`
	ReasoningTokens     uint64  `json:"reasoning_tokens,omitempty"`
	CacheCreationTokens uint64  `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens     uint64  `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens    uint64  `json:"cache_write_tokens,omitempty"`
	Cost                float64 `json:"cost,omitempty"`
	Steps               uint64  `json:"steps,omitempty"`
}

// IsZero reports whether no counters were found.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// ErrorResult describes the first error found in a tool's output.
type ErrorResult struct {
	HasError bool   `json:"has_error"`
	Type     string `json:"type,omitempty"`
	Message  string `json:"message,omitempty"`
}
