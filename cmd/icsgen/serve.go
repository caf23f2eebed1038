package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"icsgen/internal/config"
	"icsgen/internal/ics"
	appLog "icsgen/internal/log"
	"icsgen/internal/schedule"
	"icsgen/internal/source"
	"icsgen/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calendar over HTTP",
	Long: `Start the HTTP API. The document is seeded from the events file when it
exists; more events can be added with POST /api/events.

With watch enabled in the config, an edit to the events file replaces the
served document, dropping events added through the API.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	doc, err := seedDocument(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	srv := web.NewServer(cfg, doc)

	if cfg.Watch && cfg.EventsFile != "" {
		runner, err := schedule.New("", cfg.EventsFile, func(_ context.Context, _ string) error {
			opts, err := cfg.DocumentOptions()
			if err != nil {
				return err
			}
			next, _, err := source.LoadDocument(cfg.EventsFile, opts)
			if err != nil {
				return err
			}
			srv.SetDocument(next)
			return nil
		})
		if err != nil {
			return err
		}
		go func() {
			if err := runner.Run(ctx); err != nil {
				appLog.Error("events file watcher stopped", err)
			}
		}()
	}

	return srv.Run(ctx)
}

// seedDocument loads cfg.EventsFile into a new document. A missing events
// file yields an empty document.
func seedDocument(cfg *config.Config) (*ics.Document, error) {
	opts, err := cfg.DocumentOptions()
	if err != nil {
		return nil, err
	}
	if cfg.EventsFile == "" {
		return ics.New(opts), nil
	}
	if _, err := os.Stat(cfg.EventsFile); errors.Is(err, fs.ErrNotExist) {
		appLog.Info("events file not found; starting empty", "events_file", cfg.EventsFile)
		return ics.New(opts), nil
	}

	doc, skipped, err := source.LoadDocument(cfg.EventsFile, opts)
	if err != nil {
		return nil, err
	}
	appLog.Info("events loaded", "events_file", cfg.EventsFile, "added", doc.Len(), "skipped", len(skipped))
	return doc, nil
}
