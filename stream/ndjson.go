// Package stream implements newline-delimited JSON (NDJSON) handling for
// agent CLI output and input.
//
// Tools that support structured output write one JSON document per line.
// Output arrives from a pipe in arbitrary chunks, so OutputStream buffers
// partial lines across reads and only decodes a line once its newline has
// been seen. InputStream does the reverse for tools that accept NDJSON on
// stdin.
package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Message is one decoded NDJSON document: a map[string]any for objects or
// a []any for arrays. Numbers decode as json.Number.
type Message = any

// IsCandidate reports whether a line looks like a JSON object or array.
// The test is syntactic: only the first non-space character is checked.
func IsCandidate(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// ParseLine decodes a single NDJSON line. Blank lines, lines that do not
// start with '{' or '[', and lines that fail to decode all report false.
func ParseLine(line string) (Message, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !IsCandidate(trimmed) {
		return nil, false
	}
	// Valid rejects trailing data after the first document.
	if !json.Valid([]byte(trimmed)) {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var msg any
	if err := dec.Decode(&msg); err != nil {
		return nil, false
	}
	return msg, true
}

// SerializeLine renders v as one JSON document followed by a newline.
// A nil value renders as the empty string. When compact is false the
// document is indented with two spaces.
func SerializeLine(v any, compact bool) (string, error) {
	if v == nil {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	// Encode appends the trailing newline.
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseAll decodes every line of text, skipping lines ParseLine rejects.
func ParseAll(text string) []Message {
	var messages []Message
	for _, line := range strings.Split(text, "\n") {
		if msg, ok := ParseLine(line); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// SerializeAll concatenates SerializeLine over values in order.
func SerializeAll(values []any, compact bool) (string, error) {
	var b strings.Builder
	for _, v := range values {
		line, err := SerializeLine(v, compact)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}
	return b.String(), nil
}
