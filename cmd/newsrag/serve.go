package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xhad/newsrag/pkg/store"
	"github.com/xhad/newsrag/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the News Researcher web interface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, true)
			if err != nil {
				return err
			}

			action, startupErr := resolveMarker(cfg.Index.Path)
			var startup []server.Notice
			switch action {
			case store.StartupDeleted:
				startup = append(startup, server.Notice{Level: "success", Text: "Database cleared successfully on startup"})
			case store.StartupLocked:
				startup = append(startup, server.Notice{Level: "error", Text: startupErr.Error()})
			}

			p, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.store.Close()

			logger := slog.Default()
			srv, err := server.New(server.Config{
				Addr:      cfg.Server.Addr,
				IndexPath: cfg.Index.Path,
			}, server.Deps{
				Fetcher:  p.scraper,
				Chunker:  &p.processor,
				Index:    p.store,
				Answerer: p.engine,
				Logger:   logger,
			}, startup)
			if err != nil {
				return err
			}

			return srv.ListenAndServe()
		},
	}
}
