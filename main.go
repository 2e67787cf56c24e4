package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/new-medium/claude-to-notion-exporter/internal/export"
)

func main() {
	app := &cli.App{
		Name:  "claude-to-notion",
		Usage: "Export conversation transcripts into a Notion page as a summarized outline",
		Commands: []*cli.Command{
			{
				Name:   "export",
				Usage:  "Summarize a transcript and write it to a Notion page",
				Action: export.ExportAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Transcript file (.jsonl Claude export, or a saved .html conversation page)",
					},
					&cli.StringFlag{
						Name:  "page",
						Usage: "Destination Notion page id (falls back to default_page_id in the config)",
					},
					&cli.BoolFlag{
						Name:  "update",
						Usage: "Append only turns added since the last export of this conversation",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "YAML config file path",
						Value: "config.yaml",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Only log errors, no progress output",
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recorded exports, newest first",
				Action: export.HistoryAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum records to show (0 = all)",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "YAML config file path",
						Value: "config.yaml",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Only log errors",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
