package ui

import (
	"fmt"
	"strings"

	"github.com/stephenmfriend/agent-commander/stream"
)

// RenderLine turns one line of tool output into display text. Lines that
// are not JSON come back unchanged; JSON messages with nothing worth
// showing (pings, step boundaries) come back empty.
func RenderLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	msg, ok := stream.ParseLine(line)
	if !ok {
		return line
	}
	return RenderMessage(msg)
}

// RenderMessage summarises a decoded message from any supported tool.
func RenderMessage(msg stream.Message) string {
	switch stream.Type(msg) {
	case "assistant":
		return renderContentBlocks(msg)

	case "content_block_delta":
		s, _ := stream.LookupString(msg, "delta", "text")
		return s

	case "message":
		// gemini
		if role, _ := stream.LookupString(msg, "role"); role == "user" {
			return ""
		}
		s, _ := stream.LookupString(msg, "content")
		return s

	case "text":
		// opencode and agent
		s, _ := stream.LookupString(msg, "part", "text")
		return s

	case "tool_use":
		for _, path := range [][]string{{"part", "tool"}, {"tool_name"}, {"name"}} {
			if name, ok := stream.LookupString(msg, path...); ok {
				return fmt.Sprintf("[Tool: %s]", name)
			}
		}
		return "[Tool]"

	case "item.completed":
		return renderCodexItem(msg)

	case "thread.started":
		if id, ok := stream.LookupString(msg, "thread_id"); ok {
			return fmt.Sprintf("[Session: %s]", id)
		}

	case "system":
		if id, ok := stream.LookupString(msg, "session_id"); ok {
			return fmt.Sprintf("[Session: %s]", id)
		}

	case "result":
		if sub, ok := stream.LookupString(msg, "subtype"); ok {
			return fmt.Sprintf("[Result: %s]", sub)
		}
		return "[Result]"

	case "error", "step_error":
		return renderError(msg)
	}

	return ""
}

func renderContentBlocks(msg stream.Message) string {
	v, ok := stream.Lookup(msg, "message", "content")
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	blocks, ok := v.([]any)
	if !ok {
		return ""
	}

	var texts []string
	for _, b := range blocks {
		switch t, _ := stream.LookupString(b, "type"); t {
		case "text":
			if s, ok := stream.LookupString(b, "text"); ok && s != "" {
				texts = append(texts, s)
			}
		case "tool_use":
			if name, ok := stream.LookupString(b, "name"); ok {
				texts = append(texts, fmt.Sprintf("[Tool: %s]", name))
			}
		}
	}
	return strings.Join(texts, " ")
}

func renderCodexItem(msg stream.Message) string {
	switch t, _ := stream.LookupString(msg, "item", "type"); t {
	case "agent_message", "reasoning":
		s, _ := stream.LookupString(msg, "item", "text")
		return s
	case "command_execution":
		if c, ok := stream.LookupString(msg, "item", "command"); ok {
			return fmt.Sprintf("[Command: %s]", c)
		}
	case "file_change":
		return "[File change]"
	}
	return ""
}

func renderError(msg stream.Message) string {
	for _, path := range [][]string{{"message"}, {"error", "message"}, {"error"}} {
		if s, ok := stream.LookupString(msg, path...); ok && s != "" {
			return fmt.Sprintf("[Error: %s]", s)
		}
	}
	return "[Error]"
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
