package stream

import (
	"strings"
	"testing"
)

type recordingListener struct {
	lines    []string
	messages []Message
	errors   []ParseError
}

func (r *recordingListener) OnLine(line string, _ int) {
	r.lines = append(r.lines, line)
}

func (r *recordingListener) OnMessage(msg Message, _ int) {
	r.messages = append(r.messages, msg)
}

func (r *recordingListener) OnParseError(err ParseError) {
	r.errors = append(r.errors, err)
}

func TestOutputStream_SplitAcrossChunks(t *testing.T) {
	s := NewOutputStream()

	first := s.Process(`{"type":"mes`)
	if len(first) != 0 {
		t.Fatalf("expected 0 messages from partial chunk, got %d", len(first))
	}

	second := s.Process("sage\"}\n")
	if len(second) != 1 {
		t.Fatalf("expected 1 message, got %d", len(second))
	}
	if Type(second[0]) != "message" {
		t.Errorf("expected type 'message', got %q", Type(second[0]))
	}
	if s.LineCount() != 1 {
		t.Errorf("expected line count 1, got %d", s.LineCount())
	}
}

func TestOutputStream_NoNewlineNeverCompletes(t *testing.T) {
	s := NewOutputStream()
	for _, chunk := range []string{`{"a"`, `:1`, `}`} {
		if got := s.Process(chunk); len(got) != 0 {
			t.Fatalf("expected no messages for chunk %q, got %d", chunk, len(got))
		}
	}
	if s.LineCount() != 0 {
		t.Errorf("expected line count 0, got %d", s.LineCount())
	}
	if s.Pending() != `{"a":1}` {
		t.Errorf("expected pending buffer to hold the partial line, got %q", s.Pending())
	}
}

func TestOutputStream_EmptyLines(t *testing.T) {
	s := NewOutputStream()
	got := s.Process("\n\n   \n")
	if len(got) != 0 {
		t.Errorf("expected no messages, got %d", len(got))
	}
	if len(s.Errors()) != 0 {
		t.Errorf("expected no errors, got %d", len(s.Errors()))
	}
	if s.LineCount() != 3 {
		t.Errorf("expected line count 3, got %d", s.LineCount())
	}
}

func TestOutputStream_BareScalarIgnored(t *testing.T) {
	s := NewOutputStream()
	s.Process("123\n\"text\"\n")
	if len(s.Messages()) != 0 {
		t.Errorf("expected no messages, got %d", len(s.Messages()))
	}
	if len(s.Errors()) != 0 {
		t.Errorf("expected no errors, got %d", len(s.Errors()))
	}
}

func TestOutputStream_ParseErrors(t *testing.T) {
	s := NewOutputStream()
	s.Process("{\"ok\":true}\n{not json\n[broken\nplain log line\n")

	errs := s.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(errs))
	}
	if errs[0].Line != "{not json" {
		t.Errorf("expected offending line '{not json', got %q", errs[0].Line)
	}
	if errs[0].LineNumber != 2 {
		t.Errorf("expected line number 2, got %d", errs[0].LineNumber)
	}
	if !strings.Contains(errs[0].Error(), "line 2") {
		t.Errorf("expected error text to name line 2, got %q", errs[0].Error())
	}
	if len(s.Messages()) != 1 {
		t.Errorf("expected 1 message, got %d", len(s.Messages()))
	}
}

func TestOutputStream_Flush(t *testing.T) {
	s := NewOutputStream()
	s.Process("{\"a\":1}\n{\"b\":2}")

	if len(s.Messages()) != 1 {
		t.Fatalf("expected 1 message before flush, got %d", len(s.Messages()))
	}

	flushed := s.Flush()
	if len(flushed) != 1 {
		t.Fatalf("expected 1 flushed message, got %d", len(flushed))
	}
	if !Has(flushed[0], "b") {
		t.Errorf("expected flushed message to carry 'b', got %v", flushed[0])
	}
	if s.LineCount() != 2 {
		t.Errorf("expected line count 2, got %d", s.LineCount())
	}
	if s.Pending() != "" {
		t.Errorf("expected empty pending buffer, got %q", s.Pending())
	}
}

func TestOutputStream_FlushBlankIsNoop(t *testing.T) {
	s := NewOutputStream()
	s.Process("{\"a\":1}\n   ")

	before := s.LineCount()
	if got := s.Flush(); len(got) != 0 {
		t.Errorf("expected no messages from blank flush, got %d", len(got))
	}
	if s.LineCount() != before {
		t.Errorf("expected line count to stay %d, got %d", before, s.LineCount())
	}
	if s.Pending() != "" {
		t.Errorf("expected blank pending buffer to be cleared, got %q", s.Pending())
	}
	if len(s.Messages()) != 1 || len(s.Errors()) != 0 {
		t.Errorf("expected 1 message and no errors, got %d and %d", len(s.Messages()), len(s.Errors()))
	}

	empty := NewOutputStream()
	if got := empty.Flush(); len(got) != 0 {
		t.Errorf("expected no messages from empty flush, got %d", len(got))
	}
	if empty.LineCount() != 0 {
		t.Errorf("expected line count 0, got %d", empty.LineCount())
	}
}

func TestOutputStream_FlushMalformed(t *testing.T) {
	s := NewOutputStream()
	s.Process(`{"unterminated":`)
	s.Flush()

	if len(s.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(s.Errors()))
	}
	if s.Errors()[0].LineNumber != 1 {
		t.Errorf("expected line number 1, got %d", s.Errors()[0].LineNumber)
	}
}

func TestOutputStream_ChunkBoundaryInvariance(t *testing.T) {
	input := "log start\n{\"type\":\"init\",\"session_id\":\"abc\"}\n\n{\"type\":\"assistant\"}\n{bad\n[1,2]\n{\"type\":\"result\"}"

	whole := NewOutputStream()
	whole.Process(input)
	whole.Flush()

	for size := 1; size <= 7; size++ {
		chunked := NewOutputStream()
		for i := 0; i < len(input); i += size {
			end := i + size
			if end > len(input) {
				end = len(input)
			}
			chunked.Process(input[i:end])
		}
		chunked.Flush()

		if len(chunked.Messages()) != len(whole.Messages()) {
			t.Fatalf("chunk size %d: expected %d messages, got %d", size, len(whole.Messages()), len(chunked.Messages()))
		}
		for i := range whole.Messages() {
			if Type(chunked.Messages()[i]) != Type(whole.Messages()[i]) {
				t.Errorf("chunk size %d: message %d type %q, want %q", size, i, Type(chunked.Messages()[i]), Type(whole.Messages()[i]))
			}
		}
		if len(chunked.Errors()) != len(whole.Errors()) {
			t.Errorf("chunk size %d: expected %d errors, got %d", size, len(whole.Errors()), len(chunked.Errors()))
		}
		if chunked.LineCount() != whole.LineCount() {
			t.Errorf("chunk size %d: expected line count %d, got %d", size, whole.LineCount(), chunked.LineCount())
		}
	}
}

func TestOutputStream_Listener(t *testing.T) {
	rec := &recordingListener{}
	s := NewOutputStream(WithListener(rec))
	s.Process("hello\n{\"a\":1}\n{oops\n")

	if len(rec.lines) != 3 {
		t.Errorf("expected 3 raw lines, got %d", len(rec.lines))
	}
	if len(rec.messages) != 1 {
		t.Errorf("expected 1 message event, got %d", len(rec.messages))
	}
	if len(rec.errors) != 1 {
		t.Errorf("expected 1 error event, got %d", len(rec.errors))
	}
}

func TestOutputStream_ListenerDoesNotChangeOutcome(t *testing.T) {
	input := "{\"a\":1}\nnoise\n{bad\n{\"b\":2}\n"

	plain := NewOutputStream()
	plain.Process(input)

	observed := NewOutputStream(WithListener(&recordingListener{}))
	observed.Process(input)

	if len(plain.Messages()) != len(observed.Messages()) || len(plain.Errors()) != len(observed.Errors()) {
		t.Error("expected listener not to change parsing outcome")
	}
}

func TestOutputStream_FilterAndFind(t *testing.T) {
	s := NewOutputStream()
	s.Process("{\"type\":\"assistant\",\"n\":1}\n{\"type\":\"tool\"}\n{\"type\":\"assistant\",\"n\":2}\n")

	assistants := s.FilterByType("assistant")
	if len(assistants) != 2 {
		t.Errorf("expected 2 assistant messages, got %d", len(assistants))
	}

	msg, ok := s.Find(func(m Message) bool { return Type(m) == "tool" })
	if !ok {
		t.Fatal("expected to find tool message")
	}
	if Type(msg) != "tool" {
		t.Errorf("expected type 'tool', got %q", Type(msg))
	}

	if _, ok := s.Find(func(m Message) bool { return Type(m) == "missing" }); ok {
		t.Error("expected no match for missing type")
	}
}

func TestOutputStream_Reset(t *testing.T) {
	s := NewOutputStream()
	s.Process("{\"a\":1}\n{bad\npartial")
	s.Reset()

	if len(s.Messages()) != 0 || len(s.Errors()) != 0 || s.LineCount() != 0 || s.Pending() != "" {
		t.Error("expected all state to be cleared after Reset")
	}

	s.Process("{\"b\":2}\n")
	if len(s.Messages()) != 1 {
		t.Errorf("expected stream to be reusable after Reset, got %d messages", len(s.Messages()))
	}
}
