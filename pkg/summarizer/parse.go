package summarizer

import (
	"encoding/json"
	"regexp"
	"strings"
)

// jsonObjectPattern locates a JSON-shaped payload anywhere in a free-form
// model response, including inside markdown code fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{[^{}]*"one_line"[^{}]*\}`)

type structuredSummary struct {
	OneLine   string `json:"one_line"`
	Paragraph string `json:"paragraph"`
}

// parseResponse extracts the (oneLine, paragraph) pair from a model
// response. It never fails: a malformed response degrades to a first-
// sentence label over the full trimmed text.
func parseResponse(text string) (string, string) {
	trimmed := strings.TrimSpace(text)

	if match := jsonObjectPattern.FindString(trimmed); match != "" {
		var parsed structuredSummary
		if err := json.Unmarshal([]byte(match), &parsed); err == nil && parsed.OneLine != "" {
			paragraph := parsed.Paragraph
			if paragraph == "" {
				paragraph = parsed.OneLine
			}
			return strings.TrimSpace(parsed.OneLine), strings.TrimSpace(paragraph)
		}
	}

	return firstSentence(trimmed), trimmed
}

// firstSentence returns the text up to the first sentence terminator, or
// the first 150 characters when no terminator appears early enough.
func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 && idx < 150 {
		return strings.TrimSpace(text[:idx+1])
	}
	if len(text) > 150 {
		return strings.TrimSpace(text[:150])
	}
	return text
}
