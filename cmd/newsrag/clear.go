package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/newsrag/pkg/store"
)

func newClearCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Mark the local index for deletion on next startup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, false)
			if err != nil {
				return err
			}

			resolveMarker(cfg.Index.Path)

			if err := store.MarkForDeletion(cfg.Index.Path); err != nil {
				return err
			}

			color.Green("Database marked for deletion")
			color.Yellow("The index will be removed the next time newsrag starts.")
			return nil
		},
	}
}
