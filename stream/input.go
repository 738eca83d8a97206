package stream

import (
	"io"
	"strings"
)

// InputStream accumulates outbound messages for tools that read NDJSON
// from stdin.
type InputStream struct {
	compact  bool
	messages []any
}

// NewInputStream creates an empty input stream.
func NewInputStream(compact bool) *InputStream {
	return &InputStream{compact: compact}
}

// NewInputStreamFrom creates an input stream seeded with msgs. Nil entries
// are dropped.
func NewInputStreamFrom(msgs []any, compact bool) *InputStream {
	s := NewInputStream(compact)
	for _, m := range msgs {
		s.Add(m)
	}
	return s
}

// Add appends msg. Nil messages are ignored.
func (s *InputStream) Add(msg any) *InputStream {
	if msg == nil {
		return s
	}
	s.messages = append(s.messages, msg)
	return s
}

// AddPrompt appends a user_prompt message.
func (s *InputStream) AddPrompt(content string) *InputStream {
	return s.Add(map[string]any{
		"type":    "user_prompt",
		"content": content,
	})
}

// AddSystemMessage appends a system message.
func (s *InputStream) AddSystemMessage(content string) *InputStream {
	return s.Add(map[string]any{
		"type":    "system",
		"content": content,
	})
}

// AddConfig appends a config message with the keys of cfg merged into it.
// A "type" key in cfg overrides the envelope.
func (s *InputStream) AddConfig(cfg map[string]any) *InputStream {
	msg := map[string]any{"type": "config"}
	for k, v := range cfg {
		msg[k] = v
	}
	return s.Add(msg)
}

// String renders all messages as NDJSON in insertion order.
func (s *InputStream) String() (string, error) {
	return SerializeAll(s.messages, s.compact)
}

// Bytes renders all messages as NDJSON bytes.
func (s *InputStream) Bytes() ([]byte, error) {
	text, err := s.String()
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// Reader renders the stream for use as a process stdin.
func (s *InputStream) Reader() (io.Reader, error) {
	text, err := s.String()
	if err != nil {
		return nil, err
	}
	return strings.NewReader(text), nil
}

// Messages returns the buffered messages.
func (s *InputStream) Messages() []any {
	return s.messages
}

// Len returns the number of buffered messages.
func (s *InputStream) Len() int {
	return len(s.messages)
}

// Clear drops all buffered messages.
func (s *InputStream) Clear() *InputStream {
	s.messages = nil
	return s
}
