package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"icsgen/internal/config"
	"icsgen/internal/export"
	"icsgen/internal/ics"
	appLog "icsgen/internal/log"
	"icsgen/internal/source"
)

var (
	buildStdout bool
	buildVerify bool
	buildStrict bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the events file into a calendar file",
	Long: `Read the configured events file, render it as an iCalendar document and
write it to <output.dir>/<output.filename><output.extension>.

Events with missing fields or unparseable times are skipped and reported.
The command fails when no event could be added.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildStdout, "stdout", false, "Write the calendar to stdout instead of a file")
	buildCmd.Flags().BoolVar(&buildVerify, "verify", false, "Re-parse the output and check its event count")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "Fail if any event is skipped")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var exp ics.Exporter = export.File{Dir: cfg.Output.Dir}
	if buildStdout {
		exp = export.Writer{W: cmd.OutOrStdout()}
	}

	_, err = render(cfg, exp, buildStrict, buildVerify)
	return err
}

// render builds a document from cfg.EventsFile and hands it to exp.
func render(cfg *config.Config, exp ics.Exporter, strict, verify bool) (*ics.Document, error) {
	opts, err := cfg.DocumentOptions()
	if err != nil {
		return nil, err
	}

	doc, skipped, err := source.LoadDocument(cfg.EventsFile, opts)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if len(skipped) > 0 {
		if strict {
			return nil, fmt.Errorf("%d event(s) skipped: %w", len(skipped), errors.Join(skipped...))
		}
		appLog.Info("some events were skipped", "skipped", len(skipped), "added", doc.Len())
	}

	cal, err := doc.Download(exp, cfg.Output.Filename, cfg.Output.Extension)
	if errors.Is(err, ics.ErrNoEvents) {
		return nil, fmt.Errorf("%s: %w", cfg.EventsFile, err)
	}
	if err != nil {
		return nil, err
	}

	if verify {
		n, err := ics.Verify(cal)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		if n != doc.Len() {
			return nil, fmt.Errorf("verify: parsed %d events, expected %d", n, doc.Len())
		}
		appLog.Debug("calendar verified", "events", n)
	}

	return doc, nil
}
