package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"icsgen/internal/config"
	appLog "icsgen/internal/log"
)

const defaultConfigPath = "icsgen.yaml"

var (
	version = "dev"

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "icsgen",
	Short: "Render calendar events into an iCalendar (.ics) file",
	Long: `icsgen turns a list of events (subject, description, location, start, end)
into an iCalendar document.

The events come from a YAML events file or the HTTP API; the rendered
calendar is written to disk, printed, or served as a download.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $ICSGEN_CONFIG or icsgen.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, error (overrides config)")
}

// resolveConfigPath applies the --config > $ICSGEN_CONFIG > default order.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("ICSGEN_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// loadConfig loads the config file and applies the log level.
func loadConfig() (*config.Config, error) {
	path := resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	appLog.Debug("effective config",
		"config_path", path,
		"uid_domain", cfg.UIDDomain,
		"product_id", cfg.ProductID,
		"line_ending", cfg.LineEnding,
		"timezone", cfg.Timezone,
		"events_file", cfg.EventsFile,
		"output_dir", cfg.Output.Dir,
	)
	return cfg, nil
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
