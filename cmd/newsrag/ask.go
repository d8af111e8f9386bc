package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/newsrag/pkg/store"
)

func newAskCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, true)
			if err != nil {
				return err
			}

			resolveMarker(cfg.Index.Path)

			if !store.IndexExists(cfg.Index.Path) {
				color.Yellow("No data in the database. Please ingest some URLs first.")
				return nil
			}

			p, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.store.Close()

			question := strings.Join(args, " ")
			spinner := getSpinner("Researching an answer...")
			answer, err := p.engine.Answer(cmd.Context(), question)
			_ = spinner.Finish()
			fmt.Println()
			if err != nil {
				return fmt.Errorf("error generating response: %w", err)
			}

			color.Cyan("Answer:")
			fmt.Println(answer.Text)

			if len(answer.Sources) > 0 {
				fmt.Println()
				color.Cyan("Sources:")
				for _, src := range answer.Sources {
					fmt.Printf("  %s\n    %s\n", color.GreenString(src.SourceURL), src.Excerpt(300))
				}
			}

			return nil
		},
	}
}
