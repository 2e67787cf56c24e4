// Package models defines data structures shared across the export pipeline.
package models

import "fmt"

// Turn is one user/assistant exchange unit in a conversation.
// Turns are 1-indexed by position and immutable once extracted.
type Turn struct {
	Number    int    `yaml:"number" json:"number"`
	User      string `yaml:"user" json:"user"`
	Assistant string `yaml:"assistant" json:"assistant"`
}

// Conversation is an extracted transcript plus its identity metadata.
// ID is the canonical conversation identity (a URL or a file-derived key)
// used to key the export ledger.
type Conversation struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Language string `yaml:"language,omitempty" json:"language,omitempty"` // ISO-639-1, "" when unknown
	Turns    []Turn `yaml:"turns" json:"turns"`
}

// TurnSummary is the two-tier summary derived from a single turn.
// One per input turn, never mutated after creation.
type TurnSummary struct {
	TurnNumber      int    `yaml:"turn_number" json:"turn_number"`
	OneLine         string `yaml:"one_line" json:"one_line"`
	Paragraph       string `yaml:"paragraph" json:"paragraph"`
	SourceUser      string `yaml:"-" json:"-"`
	SourceAssistant string `yaml:"-" json:"-"`
}

// SentinelSummary builds the placeholder summary substituted when
// summarization fails for a turn, preserving turn-position integrity.
func SentinelSummary(turn Turn) TurnSummary {
	return TurnSummary{
		TurnNumber:      turn.Number,
		OneLine:         fmt.Sprintf("Turn %d (summary failed)", turn.Number),
		Paragraph:       "The summary for this turn could not be generated. The source text below is unaffected.",
		SourceUser:      turn.User,
		SourceAssistant: turn.Assistant,
	}
}
