// Package notion is a minimal typed client for the Notion blocks API,
// covering the append/read-children calls the exporter needs.
package notion

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the hard per-block content cap imposed by the API.
const MaxTextLength = 2000

// Block is one node of the destination document tree. Exactly one of the
// type-specific payloads is set, matching the Type discriminator.
type Block struct {
	Object      string `json:"object,omitempty"`
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children,omitempty"`

	Paragraph *RichTextContent `json:"paragraph,omitempty"`
	Toggle    *ToggleContent   `json:"toggle,omitempty"`
	Heading3  *RichTextContent `json:"heading_3,omitempty"`
	Bookmark  *BookmarkContent `json:"bookmark,omitempty"`
}

// RichTextContent is the payload of paragraph and heading blocks.
type RichTextContent struct {
	RichText []RichText `json:"rich_text"`
}

// ToggleContent is the payload of a toggle block. Children may be nested
// one level deep on write; deeper nesting requires a second request.
type ToggleContent struct {
	RichText []RichText `json:"rich_text"`
	Children []Block    `json:"children,omitempty"`
}

// BookmarkContent is the payload of a bookmark block.
type BookmarkContent struct {
	URL string `json:"url"`
}

// RichText is one styled text run.
type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
}

// TextContent is the raw content of a text run.
type TextContent struct {
	Content string `json:"content"`
}

// Annotations carries the styling flags the exporter uses.
type Annotations struct {
	Bold bool `json:"bold,omitempty"`
}

// Text builds a plain rich-text run, clipped to MaxTextLength.
func Text(content string) []RichText {
	return []RichText{{Type: "text", Text: &TextContent{Content: Clip(content)}}}
}

// BoldText builds a bold rich-text run, clipped to MaxTextLength.
func BoldText(content string) []RichText {
	return []RichText{{
		Type:        "text",
		Text:        &TextContent{Content: Clip(content)},
		Annotations: &Annotations{Bold: true},
	}}
}

// Paragraph builds a paragraph block.
func Paragraph(content string) Block {
	return Block{Object: "block", Type: "paragraph", Paragraph: &RichTextContent{RichText: Text(content)}}
}

// BoldParagraph builds a paragraph block with bold text.
func BoldParagraph(content string) Block {
	return Block{Object: "block", Type: "paragraph", Paragraph: &RichTextContent{RichText: BoldText(content)}}
}

// Heading builds a level-3 heading block.
func Heading(content string) Block {
	return Block{Object: "block", Type: "heading_3", Heading3: &RichTextContent{RichText: Text(content)}}
}

// Bookmark builds a bookmark block pointing at url.
func Bookmark(url string) Block {
	return Block{Object: "block", Type: "bookmark", Bookmark: &BookmarkContent{URL: url}}
}

// Toggle builds a collapsible toggle block with the given children.
func Toggle(label string, children ...Block) Block {
	return Block{Object: "block", Type: "toggle", Toggle: &ToggleContent{
		RichText: Text(label),
		Children: children,
	}}
}

// Clip enforces the per-block content cap, cutting back to the nearest
// rune boundary so a multi-byte character is never truncated mid-sequence.
func Clip(content string) string {
	if len(content) <= MaxTextLength {
		return content
	}
	cut := MaxTextLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// PlainText flattens a block's visible text, used when matching read-back
// children.
func (b Block) PlainText() string {
	var runs []RichText
	switch {
	case b.Paragraph != nil:
		runs = b.Paragraph.RichText
	case b.Toggle != nil:
		runs = b.Toggle.RichText
	case b.Heading3 != nil:
		runs = b.Heading3.RichText
	}
	var sb strings.Builder
	for _, r := range runs {
		if r.PlainText != "" {
			sb.WriteString(r.PlainText)
		} else if r.Text != nil {
			sb.WriteString(r.Text.Content)
		}
	}
	return sb.String()
}
