package stream

import (
	"fmt"
	"strings"
)

// ParseError records a line that looked like a JSON object but did not
// decode. Parse errors are collected, never returned as failures.
type ParseError struct {
	Line       string
	LineNumber int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: malformed JSON", e.LineNumber)
}

// Listener observes an OutputStream as it decodes. Implementations must
// not call back into the stream.
type Listener interface {
	// OnLine is called for every complete line before it is decoded.
	OnLine(line string, lineNumber int)

	// OnMessage is called for every decoded message.
	OnMessage(msg Message, lineNumber int)

	// OnParseError is called for every malformed object line.
	OnParseError(err ParseError)
}

// NopListener ignores all events. Embed it to implement a subset of Listener.
type NopListener struct{}

func (NopListener) OnLine(string, int)      {}
func (NopListener) OnMessage(Message, int)  {}
func (NopListener) OnParseError(ParseError) {}

// OutputStream incrementally decodes NDJSON delivered in arbitrary chunks.
// It is not safe for concurrent use; one reader owns it for a run.
type OutputStream struct {
	buffer    string
	messages  []Message
	errors    []ParseError
	lineCount int
	listener  Listener
}

// OutputOption configures an OutputStream.
type OutputOption func(*OutputStream)

// WithListener attaches a listener to the stream.
func WithListener(l Listener) OutputOption {
	return func(s *OutputStream) {
		s.listener = l
	}
}

// NewOutputStream creates an empty output stream.
func NewOutputStream(opts ...OutputOption) *OutputStream {
	s := &OutputStream{}
	for _, opt := range opts {
		opt(s)
	}
	if s.listener == nil {
		s.listener = NopListener{}
	}
	return s
}

// Process appends chunk to the pending buffer and decodes every line it
// completes. The trailing segment after the last newline stays buffered.
// It returns only the messages completed by this chunk.
func (s *OutputStream) Process(chunk string) []Message {
	s.buffer += chunk

	lines := strings.Split(s.buffer, "\n")
	s.buffer = lines[len(lines)-1]

	var completed []Message
	for _, line := range lines[:len(lines)-1] {
		if msg, ok := s.handleLine(line); ok {
			completed = append(completed, msg)
		}
	}
	return completed
}

// Flush treats a non-blank pending buffer as a final line and clears the
// buffer. Call it once the producer has closed its output so a trailing
// line without a newline is not lost.
func (s *OutputStream) Flush() []Message {
	line := s.buffer
	s.buffer = ""
	if strings.TrimSpace(line) == "" {
		return nil
	}

	if msg, ok := s.handleLine(line); ok {
		return []Message{msg}
	}
	return nil
}

func (s *OutputStream) handleLine(line string) (Message, bool) {
	s.lineCount++
	s.listener.OnLine(line, s.lineCount)

	if msg, ok := ParseLine(line); ok {
		s.messages = append(s.messages, msg)
		s.listener.OnMessage(msg, s.lineCount)
		return msg, true
	}

	// Only lines that open an object count as errors; anything else is
	// ordinary tool noise.
	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		pe := ParseError{Line: line, LineNumber: s.lineCount}
		s.errors = append(s.errors, pe)
		s.listener.OnParseError(pe)
	}
	return nil, false
}

// Messages returns every message decoded so far, in arrival order.
func (s *OutputStream) Messages() []Message {
	return s.messages
}

// Errors returns every parse error recorded so far.
func (s *OutputStream) Errors() []ParseError {
	return s.errors
}

// LineCount returns the number of complete lines seen.
func (s *OutputStream) LineCount() int {
	return s.lineCount
}

// Pending returns the buffered partial line.
func (s *OutputStream) Pending() string {
	return s.buffer
}

// FilterByType returns messages whose "type" field equals kind.
func (s *OutputStream) FilterByType(kind string) []Message {
	var out []Message
	for _, msg := range s.messages {
		if Type(msg) == kind {
			out = append(out, msg)
		}
	}
	return out
}

// Find returns the first message matching pred.
func (s *OutputStream) Find(pred func(Message) bool) (Message, bool) {
	for _, msg := range s.messages {
		if pred(msg) {
			return msg, true
		}
	}
	return nil, false
}

// Reset clears all buffered state so the stream can be reused.
func (s *OutputStream) Reset() {
	s.buffer = ""
	s.messages = nil
	s.errors = nil
	s.lineCount = 0
}
