package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/new-medium/claude-to-notion-exporter/models"
	"github.com/new-medium/claude-to-notion-exporter/pkg/anthropic"
	"github.com/new-medium/claude-to-notion-exporter/pkg/builder"
	"github.com/new-medium/claude-to-notion-exporter/pkg/extract"
	"github.com/new-medium/claude-to-notion-exporter/pkg/ledger"
	"github.com/new-medium/claude-to-notion-exporter/pkg/notion"
	"github.com/new-medium/claude-to-notion-exporter/pkg/progress"
	"github.com/new-medium/claude-to-notion-exporter/pkg/summarizer"
)

// staleAfter is how old a progress snapshot can get before the poller
// labels the run as possibly stalled.
const staleAfter = 10 * time.Minute

func newLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ExportAction runs a full or update export for one transcript.
func ExportAction(c *cli.Context) error {
	logger := newLogger(c.Bool("quiet"))
	slog.SetDefault(logger)

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	creds, err := models.LoadCredentials()
	if err != nil {
		logger.Error("missing credentials", "error", err)
		os.Exit(2)
	}

	input := c.String("input")
	if input == "" {
		fmt.Fprintln(os.Stderr, "Error: no transcript given")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  claude-to-notion export --input conversation.jsonl --page <page-id>`)
		fmt.Fprintln(os.Stderr, `  claude-to-notion export --input conversation.jsonl --update`)
		os.Exit(1)
	}

	extractor := extract.NewFileExtractor()
	conversation, err := extractor.Extract(input)
	if err != nil {
		if errors.Is(err, extract.ErrNoTurns) {
			fmt.Fprintf(os.Stderr, "Error: %s contains no conversation turns\n", input)
			os.Exit(1)
		}
		logger.Error("failed to extract transcript", "input", input, "error", err)
		os.Exit(2)
	}
	logger.Info("transcript extracted",
		"conversation_id", conversation.ID,
		"title", conversation.Title,
		"turns", len(conversation.Turns),
		"language", conversation.Language,
	)

	pageID := c.String("page")
	if pageID == "" {
		pageID = config.DefaultPageID
	}
	update := c.Bool("update")
	if pageID == "" && !update {
		fmt.Fprintln(os.Stderr, "Error: no destination page (use --page or default_page_id in the config)")
		os.Exit(1)
	}

	store, err := ledger.Open(config.DatabasePath)
	if err != nil {
		logger.Error("failed to open export ledger", "error", err)
		os.Exit(2)
	}
	defer store.Close()

	summarize := summarizer.New(
		anthropic.NewClient(creds.AnthropicAPIKey, config.AnthropicBaseURL),
		config.Models,
		summarizer.WithRetry(config.RetryAttempts, config.RetryBaseDelay.Duration),
		summarizer.WithLanguage(conversation.Language),
	)
	build := builder.New(
		notion.NewClient(creds.NotionToken, config.NotionBaseURL),
		config.WriteDelay.Duration,
	)
	tracker := progress.NewTracker()
	orchestrator := New(summarize, build, store, tracker, config.TurnDelay.Duration)

	report, err := runWithPolling(c.Context, orchestrator, tracker, Options{
		Conversation: conversation,
		PageID:       pageID,
		Update:       update,
	}, c.Bool("quiet"))
	if err != nil {
		logger.Error("export failed", "error", err)
		if snapshot, ok := tracker.Snapshot(); ok {
			logger.Error("final state", "status", snapshot.Status, "message", snapshot.Message)
		}
		os.Exit(2)
	}

	if report.Mode == "update" {
		fmt.Printf("Update complete: appended %d new turns (%d total) to container %s\n",
			report.Processed, report.TotalTurns, report.ContainerID)
	} else {
		fmt.Printf("Export complete: %d turns written to container %s\n",
			report.Processed, report.ContainerID)
	}
	if report.Failed > 0 {
		fmt.Printf("Note: %d turns kept a placeholder summary after summarization failed\n", report.Failed)
	}
	return nil
}

// runWithPolling starts the run and polls the tracker for progress,
// preserving the fire-then-poll contract the progress store exposes to
// outside observers.
func runWithPolling(ctx context.Context, o *Orchestrator, tracker *progress.Tracker, opts Options, quiet bool) (*Report, error) {
	type outcome struct {
		report *Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := o.Run(ctx, opts)
		done <- outcome{report, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastLine string
	for {
		select {
		case result := <-done:
			if !quiet && lastLine != "" {
				fmt.Fprintln(os.Stderr)
			}
			return result.report, result.err
		case <-ticker.C:
			snapshot, ok := tracker.Snapshot()
			if !ok || quiet {
				continue
			}
			line := fmt.Sprintf("[%s] %d/%d %s", snapshot.Status, snapshot.Current, snapshot.Total, snapshot.Message)
			if time.Since(snapshot.UpdatedAt) > staleAfter {
				line += " (no update for a while, possibly stalled)"
			}
			if line != lastLine {
				fmt.Fprintf(os.Stderr, "\r%-80s", line)
				lastLine = line
			}
		}
	}
}

// HistoryAction prints the export ledger as YAML, newest first.
func HistoryAction(c *cli.Context) error {
	logger := newLogger(c.Bool("quiet"))

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	store, err := ledger.Open(config.DatabasePath)
	if err != nil {
		logger.Error("failed to open export ledger", "error", err)
		os.Exit(2)
	}
	defer store.Close()

	records, err := store.List(c.Int("limit"))
	if err != nil {
		logger.Error("failed to list export records", "error", err)
		os.Exit(2)
	}
	if len(records) == 0 {
		fmt.Println("No exports recorded yet")
		return nil
	}

	output, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	fmt.Print(string(output))
	return nil
}
