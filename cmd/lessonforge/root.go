package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/config"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
)

var (
	configPath string
	debugLog   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lessonforge",
	Short: "AI lesson generation orchestrator",
	Long: `lessonforge generates complete course lessons from a short description.

A lesson is split into small generation tasks (introduction, core concepts,
examples, exercises, quiz...) that run against OpenRouter, Gemini or Anthropic
with automatic failover, retries and validation. Failed tasks degrade to
partial content instead of failing the lesson.

Configuration is read from ~/.config/lessonforge/config.yaml, a project
.lessonforge.yaml and environment variables (OPENROUTER_API_KEY,
GEMINI_API_KEY, ANTHROPIC_API_KEY).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user and project config)")
	rootCmd.PersistentFlags().StringVar(&debugLog, "debug-log", "", "Write a debug log to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log with file and line numbers")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads and validates configuration, honouring --config.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupDebugLog installs the debug logger from --debug-log or the config.
// The returned func closes it.
func setupDebugLog(cfg *config.Config) func() {
	path := debugLog
	if path == "" {
		path = cfg.Logging.DebugLog
	}
	if path == "" {
		return func() {}
	}
	logger, err := logging.NewDebugLogger(path)
	if err != nil {
		log.Printf("[main] debug log disabled: %v", err)
		return func() {}
	}
	logging.SetDefault(logger)
	return func() {
		logging.SetDefault(nil)
		_ = logger.Close()
	}
}
