package extract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

// turnSelectors are tried in order against saved shared-conversation pages.
// Each selector must yield alternating user/assistant message nodes.
var turnSelectors = []string{
	"[data-testid=user-message], [data-testid=assistant-message]",
	"div.user-message, div.assistant-message",
	"article [data-message-author-role]",
}

// parseHTML extracts turns from a saved conversation page. When no known
// turn markup matches, go-readability distills the page into a single-turn
// conversation so the export still has something to carry.
func parseHTML(path string) (*models.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	conversation := &models.Conversation{
		ID:    canonicalID(doc, path),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	for _, selector := range turnSelectors {
		nodes := doc.Find(selector)
		if nodes.Length() < 2 {
			continue
		}
		conversation.Turns = pairMessages(nodes)
		if len(conversation.Turns) > 0 {
			break
		}
	}

	if len(conversation.Turns) == 0 {
		turn, title, err := readabilityFallback(string(data), path)
		if err != nil {
			return nil, err
		}
		if turn != nil {
			conversation.Turns = []models.Turn{*turn}
			if conversation.Title == "" {
				conversation.Title = title
			}
		}
	}

	if conversation.Title == "" {
		conversation.Title = titleFromTurns(conversation.Turns,
			strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return conversation, nil
}

// pairMessages walks matched message nodes in document order, pairing each
// user message with the assistant message that follows it.
func pairMessages(nodes *goquery.Selection) []models.Turn {
	var turns []models.Turn
	var pendingUser string
	var haveUser bool

	nodes.Each(func(_ int, node *goquery.Selection) {
		text := strings.TrimSpace(node.Text())
		if text == "" {
			return
		}
		if isUserNode(node) {
			if haveUser {
				turns = append(turns, models.Turn{Number: len(turns) + 1, User: pendingUser})
			}
			pendingUser = text
			haveUser = true
			return
		}
		turns = append(turns, models.Turn{
			Number:    len(turns) + 1,
			User:      pendingUser,
			Assistant: text,
		})
		pendingUser = ""
		haveUser = false
	})

	if haveUser {
		turns = append(turns, models.Turn{Number: len(turns) + 1, User: pendingUser})
	}
	return turns
}

func isUserNode(node *goquery.Selection) bool {
	if role, ok := node.Attr("data-message-author-role"); ok {
		return role == "user"
	}
	if testID, ok := node.Attr("data-testid"); ok {
		return strings.Contains(testID, "user")
	}
	return node.HasClass("user-message")
}

// readabilityFallback distills the page body into one pseudo-turn with an
// empty user side.
func readabilityFallback(html, path string) (*models.Turn, string, error) {
	pageURL, _ := url.Parse(fileID(path))
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to distill page content: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, "", nil
	}
	return &models.Turn{Number: 1, Assistant: text}, article.Title, nil
}

// canonicalID prefers the page's declared canonical URL over a file URI.
func canonicalID(doc *goquery.Document, path string) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && href != "" {
		return href
	}
	if content, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	return fileID(path)
}
