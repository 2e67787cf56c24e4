// Package chunker splits long text into fragments that fit a hard size
// limit, preferring paragraph and sentence boundaries over mid-word cuts.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Split cuts text into ordered chunks, each at most maxLen bytes.
// Break points are chosen by searching backward from maxLen: a paragraph
// break ("\n\n") past the halfway point wins, then a sentence break (". "),
// then a hard cut at the last rune boundary at or below maxLen. Chunk
// boundaries are whitespace-trimmed and chunks that trim to nothing are
// dropped. Every call terminates: each cut consumes at least one character.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		return []string{text}
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > maxLen {
		cut := findBreak(remaining, maxLen)
		if chunk := strings.TrimSpace(remaining[:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// findBreak returns the cut position for the next chunk of s.
// A candidate boundary only qualifies when it lies past 50% of maxLen,
// so pathological inputs cannot produce a stream of tiny chunks. The
// hard cut never lands inside a multi-byte rune.
func findBreak(s string, maxLen int) int {
	window := s[:maxLen]
	half := maxLen / 2

	if idx := strings.LastIndex(window, "\n\n"); idx > half {
		return idx + 2 // include the break
	}
	if idx := strings.LastIndex(window, ". "); idx > half {
		return idx + 2
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		// maxLen smaller than one rune; splitting the rune is the only
		// way to make progress.
		return maxLen
	}
	return cut
}
