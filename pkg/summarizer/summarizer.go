// Package summarizer turns one conversation turn into a two-tier summary
// (one-line label plus a paragraph) using the Anthropic Messages API, with
// ordered model fallback and retry on transient failures.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/new-medium/claude-to-notion-exporter/models"
	"github.com/new-medium/claude-to-notion-exporter/pkg/anthropic"
)

// promptSideLimit caps how much of each side of the turn is embedded in the
// prompt, keeping request size bounded for very long turns.
const promptSideLimit = 12000

// CompletionClient is the slice of the API client the summarizer needs.
type CompletionClient interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Summarizer generates per-turn summaries with model fallback and retries.
type Summarizer struct {
	client   CompletionClient
	models   []string
	attempts int
	baseWait time.Duration
	language string // ISO-639-1 of the transcript, "" when unknown

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Summarizer.
type Option func(*Summarizer)

// WithLanguage sets the transcript language; summaries for non-English
// transcripts are requested in that language.
func WithLanguage(lang string) Option {
	return func(s *Summarizer) { s.language = lang }
}

// WithRetry overrides the retry attempt count and base delay.
func WithRetry(attempts int, baseWait time.Duration) Option {
	return func(s *Summarizer) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if baseWait > 0 {
			s.baseWait = baseWait
		}
	}
}

// New creates a Summarizer over the given client and ordered candidate
// models, most capable first.
func New(client CompletionClient, candidates []string, opts ...Option) *Summarizer {
	s := &Summarizer{
		client:   client,
		models:   candidates,
		attempts: 3,
		baseWait: 2 * time.Second,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize generates the two-tier summary for one turn. It fails only
// after every candidate model has been tried across all retry attempts;
// the returned error is an *ExhaustedError and callers substitute the
// sentinel summary rather than aborting the run.
func (s *Summarizer) Summarize(ctx context.Context, turn models.Turn) (models.TurnSummary, error) {
	prompt := s.buildPrompt(turn)

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		text, err := s.tryAllModels(ctx, prompt, turn.Number)
		if err == nil {
			oneLine, paragraph := parseResponse(text)
			return models.TurnSummary{
				TurnNumber:      turn.Number,
				OneLine:         oneLine,
				Paragraph:       paragraph,
				SourceUser:      turn.User,
				SourceAssistant: turn.Assistant,
			}, nil
		}
		lastErr = err

		if !anthropic.IsRetryable(err) {
			break
		}
		if attempt == s.attempts {
			break
		}
		wait := s.baseWait << (attempt - 1)
		slog.Warn("summarizer: transient failure, backing off",
			"turn", turn.Number, "attempt", attempt, "wait", wait, "error", err)
		if sleepErr := s.sleep(ctx, wait); sleepErr != nil {
			lastErr = sleepErr
			break
		}
	}

	return models.TurnSummary{}, &ExhaustedError{Turn: turn.Number, Last: lastErr}
}

// tryAllModels walks the candidate list once. Model-unavailable responses
// move to the next candidate without counting as failures; other errors are
// remembered and the next candidate is still tried. The most retryable of
// the observed errors is returned so the backoff wrapper classifies the
// whole pass correctly.
func (s *Summarizer) tryAllModels(ctx context.Context, prompt string, turnNumber int) (string, error) {
	var lastErr error
	for _, model := range s.models {
		text, err := s.client.Complete(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		if anthropic.IsModelUnavailable(err) {
			slog.Info("summarizer: model unavailable, trying next candidate",
				"turn", turnNumber, "model", model)
			continue
		}
		slog.Warn("summarizer: model attempt failed",
			"turn", turnNumber, "model", model, "error", err)
		// Prefer surfacing a retryable error over a terminal one so a
		// single rate-limited candidate still drives the backoff path.
		if lastErr == nil || anthropic.IsRetryable(err) {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate model produced a response")
	}
	return "", lastErr
}

func (s *Summarizer) buildPrompt(turn models.Turn) string {
	var b strings.Builder
	b.WriteString("Summarize this exchange from a conversation transcript.\n\n")
	fmt.Fprintf(&b, "User said:\n%s\n\n", clip(turn.User, promptSideLimit))
	fmt.Fprintf(&b, "Assistant replied:\n%s\n\n", clip(turn.Assistant, promptSideLimit))
	b.WriteString("Respond with exactly one JSON object, nothing else:\n")
	b.WriteString(`{"one_line": "<label under 150 characters>", "paragraph": "<one paragraph covering what was asked and what was answered>"}`)
	if s.language != "" && s.language != "en" {
		fmt.Fprintf(&b, "\n\nWrite both fields in the language of the transcript (%s).", s.language)
	}
	return b.String()
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[truncated]"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExhaustedError means every candidate model failed across all retry
// attempts for one turn.
type ExhaustedError struct {
	Turn int
	Last error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("summarization exhausted for turn %d: %v", e.Turn, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
