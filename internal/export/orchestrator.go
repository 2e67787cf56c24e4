// Package export drives the end-to-end pipeline: mode selection, paced
// summarization, document assembly, and ledger bookkeeping.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/new-medium/claude-to-notion-exporter/models"
	"github.com/new-medium/claude-to-notion-exporter/pkg/progress"
	"github.com/new-medium/claude-to-notion-exporter/pkg/summarizer"
)

// TurnSummarizer produces the two-tier summary for one turn.
type TurnSummarizer interface {
	Summarize(ctx context.Context, turn models.Turn) (models.TurnSummary, error)
}

// DocumentBuilder executes the remote write protocol.
type DocumentBuilder interface {
	CreateExport(ctx context.Context, summaries []models.TurnSummary, pageID, title, sourceURL string) (string, error)
	AppendExport(ctx context.Context, summaries []models.TurnSummary, containerID string) error
}

// RecordStore is the ledger slice the orchestrator needs.
type RecordStore interface {
	Get(conversationID string) (*models.ExportRecord, error)
	Put(record models.ExportRecord) error
}

// Orchestrator runs one export at a time over injected collaborators.
type Orchestrator struct {
	summarizer TurnSummarizer
	builder    DocumentBuilder
	store      RecordStore
	tracker    *progress.Tracker
	turnPace   *rate.Limiter
	now        func() time.Time
}

// New creates an Orchestrator. turnDelay is the fixed pause between
// consecutive turn summarizations; zero disables pacing.
func New(s TurnSummarizer, b DocumentBuilder, store RecordStore, tracker *progress.Tracker, turnDelay time.Duration) *Orchestrator {
	pace := rate.NewLimiter(rate.Inf, 1)
	if turnDelay > 0 {
		pace = rate.NewLimiter(rate.Every(turnDelay), 1)
	}
	return &Orchestrator{
		summarizer: s,
		builder:    b,
		store:      store,
		tracker:    tracker,
		turnPace:   pace,
		now:        time.Now,
	}
}

// Options selects what to export and where.
type Options struct {
	Conversation *models.Conversation
	PageID       string
	// Update appends only turns beyond the ledger's recorded count to the
	// existing container instead of creating a new export.
	Update bool
}

// Report describes a completed run.
type Report struct {
	RunID       string
	Mode        string // "export" or "update"
	Processed   int    // turns actually summarized and written this run
	TotalTurns  int    // turns now recorded in the ledger
	ContainerID string
	Failed      int // turns that fell back to the sentinel summary
}

// Run executes one export end to end. Fatal errors leave the progress
// tracker in an error state with the failure reason; per-turn
// summarization failures degrade to sentinel summaries and never abort
// the run. The ledger is only written after full success.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := o.tracker.Begin(); err != nil {
		return nil, err
	}

	report, err := o.run(ctx, opts)
	if err != nil {
		o.tracker.Fail(err.Error())
		return nil, err
	}
	o.tracker.Done()
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, opts Options) (*Report, error) {
	conversation := opts.Conversation
	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "conversation_id", conversation.ID)

	slice, prior, err := o.selectTurns(conversation, opts.Update)
	if err != nil {
		return nil, err
	}
	containerID := ""
	pageID := opts.PageID
	if prior != nil {
		containerID = prior.ContainerID
		if pageID == "" {
			pageID = prior.PageID
		}
	}

	mode := "export"
	if opts.Update {
		mode = "update"
	}
	logger.Info("export run starting",
		"mode", mode, "turns", len(slice), "total", len(conversation.Turns))
	o.tracker.Set(models.StatusStarting, 0, len(slice),
		fmt.Sprintf("Preparing to %s %d turns", mode, len(slice)))

	summaries := make([]models.TurnSummary, 0, len(slice))
	failed := 0
	for i, turn := range slice {
		if err := o.turnPace.Wait(ctx); err != nil {
			return nil, err
		}

		summary, err := o.summarizer.Summarize(ctx, turn)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var exhausted *summarizer.ExhaustedError
			if !errors.As(err, &exhausted) {
				logger.Warn("unexpected summarization error, substituting sentinel",
					"turn", turn.Number, "error", err)
			} else {
				logger.Warn("summarization exhausted, substituting sentinel",
					"turn", turn.Number, "error", exhausted.Last)
			}
			summary = models.SentinelSummary(turn)
			failed++
		}
		summaries = append(summaries, summary)
		o.tracker.Set(models.StatusSummarizing, i+1, len(slice),
			fmt.Sprintf("Summarized turn %d of %d", i+1, len(slice)))
	}

	o.tracker.Set(models.StatusCreating, len(slice), len(slice), "Writing document")
	if opts.Update {
		if err := o.builder.AppendExport(ctx, summaries, containerID); err != nil {
			return nil, err
		}
	} else {
		containerID, err = o.builder.CreateExport(ctx, summaries, pageID,
			conversation.Title, sourceURL(conversation.ID))
		if err != nil {
			return nil, err
		}
	}

	record := models.ExportRecord{
		ConversationID: conversation.ID,
		Title:          conversation.Title,
		ExportedAt:     o.now(),
		TurnCount:      len(conversation.Turns),
		PageID:         pageID,
		ContainerID:    containerID,
	}
	if err := o.store.Put(record); err != nil {
		return nil, errors.Wrap(err, "export written but ledger update failed")
	}

	logger.Info("export run finished",
		"mode", mode, "processed", len(slice), "failed_summaries", failed,
		"container_id", containerID)
	return &Report{
		RunID:       runID,
		Mode:        mode,
		Processed:   len(slice),
		TotalTurns:  len(conversation.Turns),
		ContainerID: containerID,
		Failed:      failed,
	}, nil
}

// selectTurns picks the slice to process. Update mode requires a prior
// ledger record and a positive delta: turns k+1..n when k were exported
// before. An empty delta is a caller error, never a silent success.
func (o *Orchestrator) selectTurns(conversation *models.Conversation, update bool) ([]models.Turn, *models.ExportRecord, error) {
	if !update {
		return conversation.Turns, nil, nil
	}

	record, err := o.store.Get(conversation.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read export ledger")
	}
	if record == nil {
		return nil, nil, fmt.Errorf("no prior export recorded for this conversation; run a full export first")
	}
	if record.TurnCount >= len(conversation.Turns) {
		return nil, nil, fmt.Errorf("nothing to export: %d turns already exported, transcript has %d",
			record.TurnCount, len(conversation.Turns))
	}
	return conversation.Turns[record.TurnCount:], record, nil
}

// sourceURL passes a web conversation identity through to the document
// header; file-derived identities stay local.
func sourceURL(conversationID string) string {
	if strings.HasPrefix(conversationID, "http://") || strings.HasPrefix(conversationID, "https://") {
		return conversationID
	}
	return ""
}
