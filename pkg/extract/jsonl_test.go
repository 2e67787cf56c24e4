package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestParseJSONLPairsTurns(t *testing.T) {
	transcript := strings.Join([]string{
		`{"type":"summary","summary":"Trip planning"}`,
		`{"type":"user","message":{"role":"user","content":"Where should I go in May?"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Lisbon is lovely in May."},{"type":"text","text":"Mild weather, long days."}]}}`,
		`{"type":"user","message":{"role":"user","content":"How about food?"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"Try the pastelarias."}}`,
	}, "\n")
	path := writeTranscript(t, "chat.jsonl", transcript)

	conversation, err := parseJSONL(path)
	if err != nil {
		t.Fatalf("parseJSONL() error = %v", err)
	}

	if conversation.Title != "Trip planning" {
		t.Errorf("Title = %q, want %q", conversation.Title, "Trip planning")
	}
	if len(conversation.Turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(conversation.Turns))
	}

	first := conversation.Turns[0]
	if first.Number != 1 || first.User != "Where should I go in May?" {
		t.Errorf("turn 1 = %+v, want user question", first)
	}
	if want := "Lisbon is lovely in May.\n\nMild weather, long days."; first.Assistant != want {
		t.Errorf("turn 1 assistant = %q, want joined text blocks", first.Assistant)
	}
	if conversation.Turns[1].Assistant != "Try the pastelarias." {
		t.Errorf("turn 2 assistant = %q, want plain string content", conversation.Turns[1].Assistant)
	}
	if !strings.HasPrefix(conversation.ID, "file://") {
		t.Errorf("ID = %q, want file URI", conversation.ID)
	}
}

func TestParseJSONLSkipsNoiseLines(t *testing.T) {
	transcript := strings.Join([]string{
		`this is not json at all`,
		`{"type":"system","message":{"role":"system","content":"internal"}}`,
		`{"type":"user","isMeta":true,"message":{"role":"user","content":"meta noise"}}`,
		``,
		`{"type":"user","message":{"role":"user","content":"Real question"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"Real answer"}}`,
	}, "\n")
	path := writeTranscript(t, "noisy.jsonl", transcript)

	conversation, err := parseJSONL(path)
	if err != nil {
		t.Fatalf("parseJSONL() error = %v", err)
	}
	if len(conversation.Turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(conversation.Turns))
	}
	if conversation.Turns[0].User != "Real question" {
		t.Errorf("turn 1 user = %q, want %q", conversation.Turns[0].User, "Real question")
	}
}

func TestParseJSONLConsecutiveUserMessages(t *testing.T) {
	transcript := strings.Join([]string{
		`{"type":"user","message":{"role":"user","content":"First question"}}`,
		`{"type":"user","message":{"role":"user","content":"Second question"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"Answer to second"}}`,
		`{"type":"user","message":{"role":"user","content":"Trailing question"}}`,
	}, "\n")
	path := writeTranscript(t, "doubled.jsonl", transcript)

	conversation, err := parseJSONL(path)
	if err != nil {
		t.Fatalf("parseJSONL() error = %v", err)
	}
	if len(conversation.Turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(conversation.Turns))
	}
	if conversation.Turns[0].User != "First question" || conversation.Turns[0].Assistant != "" {
		t.Errorf("turn 1 = %+v, want first question with empty assistant", conversation.Turns[0])
	}
	if conversation.Turns[1].User != "Second question" || conversation.Turns[1].Assistant != "Answer to second" {
		t.Errorf("turn 2 = %+v, want paired second question", conversation.Turns[1])
	}
	if conversation.Turns[2].User != "Trailing question" || conversation.Turns[2].Assistant != "" {
		t.Errorf("turn 3 = %+v, want trailing question flushed", conversation.Turns[2])
	}
}

func TestParseJSONLTitleFallsBackToFirstUserMessage(t *testing.T) {
	transcript := strings.Join([]string{
		`{"type":"user","message":{"role":"user","content":"How do tides work? I never understood the moon part."}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"Gravity, mostly."}}`,
	}, "\n")
	path := writeTranscript(t, "untitled.jsonl", transcript)

	conversation, err := parseJSONL(path)
	if err != nil {
		t.Fatalf("parseJSONL() error = %v", err)
	}
	if conversation.Title != "How do tides work" {
		t.Errorf("Title = %q, want first sentence of the opening message", conversation.Title)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewFileExtractor()
	if _, err := e.Extract("transcript.pdf"); err == nil {
		t.Error("Extract(.pdf) = nil error, want unsupported format error")
	}
}

func TestExtractEmptyTranscript(t *testing.T) {
	path := writeTranscript(t, "empty.jsonl", `{"type":"summary","summary":"Nothing here"}`)

	e := NewFileExtractor()
	if _, err := e.Extract(path); err != ErrNoTurns {
		t.Errorf("Extract() error = %v, want ErrNoTurns", err)
	}
}

func TestExtractDetectsLanguage(t *testing.T) {
	transcript := strings.Join([]string{
		`{"type":"user","message":{"role":"user","content":"Could you explain how photosynthesis converts sunlight into chemical energy in plants?"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"Photosynthesis captures light energy with chlorophyll and stores it as glucose through a chain of reactions in the chloroplasts."}}`,
	}, "\n")
	path := writeTranscript(t, "english.jsonl", transcript)

	e := NewFileExtractor()
	conversation, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if conversation.Language != "en" {
		t.Errorf("Language = %q, want en", conversation.Language)
	}
}
