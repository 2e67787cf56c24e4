package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse_PlainJSON(t *testing.T) {
	oneLine, paragraph := parseResponse(`{"one_line": "Label here", "paragraph": "Longer text here."}`)
	assert.Equal(t, "Label here", oneLine)
	assert.Equal(t, "Longer text here.", paragraph)
}

func TestParseResponse_JSONInsideProse(t *testing.T) {
	text := "Sure! Here is the summary you asked for:\n\n```json\n" +
		`{"one_line": "Embedded label", "paragraph": "Found inside a code fence."}` +
		"\n```\nLet me know if you need anything else."
	oneLine, paragraph := parseResponse(text)
	assert.Equal(t, "Embedded label", oneLine)
	assert.Equal(t, "Found inside a code fence.", paragraph)
}

func TestParseResponse_MissingParagraphFallsBackToOneLine(t *testing.T) {
	oneLine, paragraph := parseResponse(`{"one_line": "Only a label"}`)
	assert.Equal(t, "Only a label", oneLine)
	assert.Equal(t, "Only a label", paragraph)
}

func TestParseResponse_NoJSONFallsBackToFirstSentence(t *testing.T) {
	text := "The turn covers database indexing. It goes into detail about B-trees."
	oneLine, paragraph := parseResponse(text)
	assert.Equal(t, "The turn covers database indexing.", oneLine)
	assert.Equal(t, text, paragraph)
}

func TestParseResponse_QuestionAndExclamationTerminators(t *testing.T) {
	oneLine, _ := parseResponse("Is this a question? More text follows.")
	assert.Equal(t, "Is this a question?", oneLine)

	oneLine, _ = parseResponse("Surprising result! More text follows.")
	assert.Equal(t, "Surprising result!", oneLine)
}

func TestParseResponse_LongTextWithoutTerminatorCapsAt150(t *testing.T) {
	text := strings.Repeat("word ", 100) // no sentence terminators
	oneLine, _ := parseResponse(text)
	assert.LessOrEqual(t, len(oneLine), 150)
	assert.NotEmpty(t, oneLine)
}

func TestParseResponse_NeverPanicsOnGarbage(t *testing.T) {
	for _, input := range []string{"", "{", `{"one_line": }`, "\x00\x01", "{}"} {
		assert.NotPanics(t, func() { parseResponse(input) })
	}
}
