// Package builder assembles the destination document: a master toggle per
// conversation, one toggle per turn, and a nested "Source Text" toggle
// populated with the raw turn text.
//
// Writes are two-phase because the destination API only accepts two levels
// of nesting per request: phase 1 creates the block skeleton, phase 2
// re-reads the created ids and populates each turn's source-text container.
package builder

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/new-medium/claude-to-notion-exporter/models"
	"github.com/new-medium/claude-to-notion-exporter/pkg/chunker"
	"github.com/new-medium/claude-to-notion-exporter/pkg/notion"
)

const sourceToggleLabel = "Source Text"

// BlockAPI is the slice of the destination client the builder needs.
type BlockAPI interface {
	AppendChildren(ctx context.Context, blockID string, children []notion.Block) ([]notion.Block, error)
	Children(ctx context.Context, blockID string) ([]notion.Block, error)
}

// Builder executes the two-phase write protocol against the blocks API.
type Builder struct {
	api     BlockAPI
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a Builder. writeDelay paces phase-2 population writes to
// respect the API's request-rate ceiling; zero disables pacing.
func New(api BlockAPI, writeDelay time.Duration) *Builder {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if writeDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(writeDelay), 1)
	}
	return &Builder{api: api, limiter: limiter, now: time.Now}
}

// CreateExport writes a fresh export of summaries under pageID and returns
// the id of the created master container for the ledger.
func (b *Builder) CreateExport(ctx context.Context, summaries []models.TurnSummary, pageID, title, sourceURL string) (string, error) {
	header := []notion.Block{
		notion.Paragraph("Exported " + b.now().Format("2006-01-02 15:04 MST")),
	}
	if sourceURL != "" {
		header = append(header, notion.Bookmark(sourceURL))
	}

	created, err := b.api.AppendChildren(ctx, pageID, []notion.Block{notion.Toggle(title, header...)})
	if err != nil {
		return "", errors.Wrap(err, "failed to create master container")
	}
	if len(created) == 0 || created[0].ID == "" {
		return "", errors.New("master container id missing from create response")
	}
	masterID := created[0].ID

	if err := b.writeSkeletons(ctx, masterID, summaries); err != nil {
		return "", err
	}
	b.populate(ctx, masterID, summaries)
	return masterID, nil
}

// AppendExport extends an existing master container with new turn
// summaries. No new master and no header block are created.
func (b *Builder) AppendExport(ctx context.Context, summaries []models.TurnSummary, containerID string) error {
	if err := b.writeSkeletons(ctx, containerID, summaries); err != nil {
		return err
	}
	b.populate(ctx, containerID, summaries)
	return nil
}

// writeSkeletons submits phase 1: one batch containing every per-turn
// toggle. A failure here is fatal to the export; the batch either fully
// succeeds or fully fails, so nothing needs rollback.
func (b *Builder) writeSkeletons(ctx context.Context, containerID string, summaries []models.TurnSummary) error {
	skeletons := make([]notion.Block, len(summaries))
	for i, s := range summaries {
		skeletons[i] = turnSkeleton(s)
	}
	if _, err := b.api.AppendChildren(ctx, containerID, skeletons); err != nil {
		return errors.Wrap(err, "failed to write turn skeletons")
	}
	return nil
}

// turnSkeleton builds the 2-level block tree for one summary: a toggle
// labeled with the one-line summary, holding the paragraph and an empty
// source-text toggle to be filled in phase 2.
func turnSkeleton(s models.TurnSummary) notion.Block {
	return notion.Toggle(s.OneLine,
		notion.Paragraph(s.Paragraph),
		notion.Toggle(sourceToggleLabel),
	)
}

// populate runs phase 2: recover the per-turn toggle ids just written and
// fill each one's source-text container. Population failures degrade the
// affected turn and never fail the export.
func (b *Builder) populate(ctx context.Context, containerID string, summaries []models.TurnSummary) {
	children, err := b.api.Children(ctx, containerID)
	if err != nil {
		slog.Error("builder: failed to read back container children, source text skipped",
			"container_id", containerID, "error", err)
		return
	}

	var toggles []notion.Block
	for _, child := range children {
		if child.Type == "toggle" {
			toggles = append(toggles, child)
		}
	}
	// The summaries just appended are the trailing toggles; in create mode
	// that is all of them.
	if len(toggles) > len(summaries) {
		toggles = toggles[len(toggles)-len(summaries):]
	}
	if len(toggles) < len(summaries) {
		slog.Warn("builder: fewer turn containers than summaries",
			"container_id", containerID, "toggles", len(toggles), "summaries", len(summaries))
	}

	for i, toggle := range toggles {
		if i >= len(summaries) {
			break
		}
		if err := b.populateTurn(ctx, toggle, summaries[i]); err != nil {
			slog.Warn("builder: source text population failed, turn keeps summary only",
				"turn", summaries[i].TurnNumber, "block_id", toggle.ID, "error", err)
		}
	}
}

func (b *Builder) populateTurn(ctx context.Context, turnToggle notion.Block, summary models.TurnSummary) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	kids, err := b.api.Children(ctx, turnToggle.ID)
	if err != nil {
		return errors.Wrap(err, "failed to read turn children")
	}

	sourceID := ""
	for _, kid := range kids {
		if kid.Type == "toggle" {
			sourceID = kid.ID
			break
		}
	}
	if sourceID == "" {
		return errors.New("source text container not found")
	}

	blocks := sourceBlocks(summary)
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := b.api.AppendChildren(ctx, sourceID, blocks); err != nil {
		return errors.Wrap(err, "failed to populate source text")
	}
	return nil
}

// sourceBlocks renders the raw turn text as labeled paragraph blocks, one
// per chunk within the per-block size cap.
func sourceBlocks(summary models.TurnSummary) []notion.Block {
	blocks := []notion.Block{notion.BoldParagraph("User:")}
	for _, chunk := range chunker.Split(summary.SourceUser, notion.MaxTextLength) {
		blocks = append(blocks, notion.Paragraph(chunk))
	}
	blocks = append(blocks, notion.BoldParagraph("Assistant:"))
	for _, chunk := range chunker.Split(summary.SourceAssistant, notion.MaxTextLength) {
		blocks = append(blocks, notion.Paragraph(chunk))
	}
	return blocks
}
