package main

import (
	"context"

	"github.com/spf13/cobra"

	"icsgen/internal/export"
	"icsgen/internal/schedule"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the calendar file on a schedule and on events file changes",
	Long: `Build once, then rebuild the output file on the configured cron schedule
("refresh") and, when "watch" is enabled, whenever the events file changes.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	watchPath := ""
	if cfg.Watch {
		watchPath = cfg.EventsFile
	}

	exp := export.File{Dir: cfg.Output.Dir}
	runner, err := schedule.New(cfg.RefreshCron, watchPath, func(context.Context, string) error {
		_, err := render(cfg, exp, false, false)
		return err
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	// A failed first build is logged by the runner; keep watching so a
	// fixed events file is picked up.
	_ = runner.Trigger(ctx, schedule.TriggerManual)

	return runner.Run(ctx)
}
