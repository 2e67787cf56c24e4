package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

type jsonlRecord struct {
	Type    string          `json:"type"`
	IsMeta  bool            `json:"isMeta"`
	Message json.RawMessage `json:"message"`
	Summary string          `json:"summary"` // for type="summary" records
}

type jsonlMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type jsonlContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// parseJSONL reads a Claude-style JSONL transcript: one record per line,
// user and assistant messages interleaved. Malformed lines are skipped
// rather than failing the whole file.
func parseJSONL(path string) (*models.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	conversation := &models.Conversation{ID: fileID(path)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var pendingUser string
	var haveUser bool
	flush := func(assistant string) {
		conversation.Turns = append(conversation.Turns, models.Turn{
			Number:    len(conversation.Turns) + 1,
			User:      strings.TrimSpace(pendingUser),
			Assistant: strings.TrimSpace(assistant),
		})
		pendingUser = ""
		haveUser = false
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record jsonlRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}

		if record.Type == "summary" && record.Summary != "" {
			conversation.Title = record.Summary
			continue
		}
		if record.IsMeta {
			continue
		}
		if record.Type != "user" && record.Type != "assistant" {
			continue
		}

		var message jsonlMessage
		if err := json.Unmarshal(record.Message, &message); err != nil {
			continue
		}
		text := contentText(message.Content)
		if text == "" {
			continue
		}

		switch record.Type {
		case "user":
			if haveUser {
				// Two user messages in a row; the earlier one gets an
				// empty assistant side to keep positions intact.
				flush("")
			}
			pendingUser = text
			haveUser = true
		case "assistant":
			if !haveUser {
				pendingUser = ""
			}
			flush(text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if haveUser {
		flush("")
	}

	if conversation.Title == "" {
		conversation.Title = titleFromTurns(conversation.Turns,
			strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return conversation, nil
}

// contentText flattens a message content field, which is either a plain
// string or an array of typed blocks.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain)
	}

	var blocks []jsonlContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
