package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/newsrag/internal/models"
)

func newIngestCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <url>...",
		Short: "Fetch articles and add them to the local index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, true)
			if err != nil {
				return err
			}

			resolveMarker(cfg.Index.Path)

			p, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.store.Close()

			bar := getProgressBar(len(args), "Fetching articles...")
			docs := make([]models.Document, 0, len(args))
			for _, url := range args {
				doc, err := p.scraper.Fetch(cmd.Context(), url)
				_ = bar.Add(1)
				if err != nil {
					color.Red("\nFailed to fetch %s: %v", url, err)
					continue
				}
				docs = append(docs, doc)
			}
			_ = bar.Finish()
			fmt.Println()

			if len(docs) == 0 {
				return fmt.Errorf("no content could be retrieved from the provided URLs")
			}
			color.Green("✓ Fetched %d articles", len(docs))

			chunks, err := p.processor.Process(docs)
			if err != nil {
				return err
			}
			color.Green("✓ Split into %d chunks", len(chunks))

			spinner := getSpinner("Storing in vector index...")
			err = p.store.Add(cmd.Context(), chunks)
			_ = spinner.Finish()
			fmt.Println()
			if err != nil {
				return err
			}

			color.Green("✓ Processed %d articles successfully", len(docs))
			return nil
		},
	}
}
