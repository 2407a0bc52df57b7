package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/citia/citewatch/cmd"
	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	closeFileLogger := setupLogging(settings)
	defer closeFileLogger()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging initializes the structured loggers and, when configured, a
// rotating log file. The returned function closes the file writer.
func setupLogging(settings *conf.Settings) func() error {
	logging.Init()

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
		logging.SetLevel(level)
	}

	logCfg := settings.Main.Log
	if !logCfg.Enabled || logCfg.Path == "" {
		return func() error { return nil }
	}

	_, closeFn, err := logging.NewFileLogger(logCfg.Path, settings.Main.Name, level, logging.FileLoggerOptions{
		MaxSizeMB:  logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
		MaxAgeDays: logCfg.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		return func() error { return nil }
	}
	return closeFn
}
