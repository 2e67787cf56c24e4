// Package extract turns saved conversation transcripts into ordered Turn
// sequences. Claude JSONL exports and shared-conversation HTML pages are
// supported; the export pipeline consumes the result read-only.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

// ErrNoTurns is returned when a transcript contains no user/assistant
// exchanges; the export run never starts in that case.
var ErrNoTurns = fmt.Errorf("no conversation turns found")

// Extractor produces a Conversation from a transcript source.
type Extractor interface {
	Extract(path string) (*models.Conversation, error)
}

// FileExtractor extracts transcripts from local files, dispatching on
// extension.
type FileExtractor struct {
	detector lingua.LanguageDetector
}

// NewFileExtractor creates a FileExtractor with language detection over the
// languages the summarizer prompt can reasonably name.
func NewFileExtractor() *FileExtractor {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.Spanish, lingua.French, lingua.German,
			lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
			lingua.Japanese, lingua.Chinese, lingua.Korean,
		).
		Build()
	return &FileExtractor{detector: detector}
}

// Extract parses the transcript at path. The conversation ID is the
// canonical URL when the source declares one, a file URI otherwise.
func (e *FileExtractor) Extract(path string) (*models.Conversation, error) {
	var conversation *models.Conversation
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		conversation, err = parseJSONL(path)
	case ".html", ".htm":
		conversation, err = parseHTML(path)
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(conversation.Turns) == 0 {
		return nil, ErrNoTurns
	}

	conversation.Language = e.detectLanguage(conversation.Turns)
	return conversation, nil
}

// detectLanguage samples turn text and returns an ISO-639-1 code, or ""
// when detection is ambiguous.
func (e *FileExtractor) detectLanguage(turns []models.Turn) string {
	var sample strings.Builder
	for _, turn := range turns {
		sample.WriteString(turn.User)
		sample.WriteString("\n")
		sample.WriteString(turn.Assistant)
		sample.WriteString("\n")
		if sample.Len() > 4096 {
			break
		}
	}

	language, ok := e.detector.DetectLanguageOf(sample.String())
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}

// fileID builds a stable conversation identity for a local transcript.
func fileID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}

// titleFromTurns derives a fallback title from the opening user message.
func titleFromTurns(turns []models.Turn, fallback string) string {
	if len(turns) == 0 {
		return fallback
	}
	first := strings.TrimSpace(turns[0].User)
	if first == "" {
		return fallback
	}
	if idx := strings.IndexAny(first, "\n.!?"); idx > 0 && idx < 80 {
		first = first[:idx]
	}
	if len(first) > 80 {
		first = first[:80]
	}
	return strings.TrimSpace(first)
}
