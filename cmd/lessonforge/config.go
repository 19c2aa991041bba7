package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View or create lessonforge configuration.

Configuration is stored at ~/.config/lessonforge/config.yaml
Project-specific overrides can be placed in .lessonforge.yaml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		displayAllConfig(cfg)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Long: `Write the default configuration to the user config file, or to path.

API keys are never written; set them in the environment or edit the file
and use ${VAR} references.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.GetUserConfigPath()
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		printStatus("⚠", fmt.Sprintf("%s already exists. Use --force to overwrite.", path), color.FgYellow)
		return nil
	}

	cfg := config.Default()
	if len(args) == 0 {
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	} else if err := config.SaveTo(cfg, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	printStatus("✓", fmt.Sprintf("Wrote %s", path), color.FgGreen)

	for _, name := range cfg.Providers.Order {
		printKeyStatus(cfg, name)
	}
	return nil
}

// printKeyStatus reports whether a provider has a usable key.
func printKeyStatus(cfg *config.Config, name string) {
	if name == config.ProviderAnthropic && cfg.Providers.Anthropic.UseBedrock {
		printStatus("✓", "anthropic uses AWS Bedrock credentials", color.FgGreen)
		return
	}
	key, err := config.GetAPIKey(cfg, name)
	if err != nil {
		printStatus("⚠", fmt.Sprintf("%s: no key (set %s)", name, strings.Join(config.EnvVars(name), " or ")), color.FgYellow)
		return
	}
	if err := config.ValidateAPIKey(name, key); err != nil {
		printStatus("⚠", fmt.Sprintf("%s: %v", name, err), color.FgYellow)
		return
	}
	printStatus("✓", fmt.Sprintf("%s key from %s", name, config.GetAPIKeySource(cfg, name)), color.FgGreen)
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	p := cfg.Providers
	fmt.Printf("providers.order: %s\n", strings.Join(p.Order, ", "))
	fmt.Printf("providers.failure_threshold: %d\n", p.FailureThreshold)
	fmt.Printf("providers.rate_limit_retries: %d\n", p.RateLimitRetries)
	fmt.Printf("providers.backoff: %s..%s\n", p.BackoffBase, p.BackoffMax)
	fmt.Printf("providers.request_timeout: %s\n", p.RequestTimeout)
	for _, name := range []string{config.ProviderOpenRouter, config.ProviderGemini, config.ProviderAnthropic} {
		b, _ := cfg.Backend(name)
		key, _ := config.GetAPIKey(cfg, name)
		fmt.Printf("providers.%s.api_key: %s (%s)\n", name, config.MaskAPIKey(key), config.GetAPIKeySource(cfg, name))
		if b.BaseURL != "" {
			fmt.Printf("providers.%s.base_url: %s\n", name, b.BaseURL)
		}
		fmt.Printf("providers.%s.models: %s\n", name, strings.Join(b.Models, ", "))
		fmt.Printf("providers.%s.requests_per_minute: %d\n", name, b.RequestsPerMinute)
		fmt.Printf("providers.%s.min_delay: %s\n", name, b.MinDelay)
	}
	fmt.Printf("providers.anthropic.use_bedrock: %t\n", p.Anthropic.UseBedrock)
	fmt.Printf("providers.anthropic.region: %s\n", p.Anthropic.Region)

	fmt.Printf("cache.ttl: %s\n", cfg.Cache.TTL)
	fmt.Printf("cache.max_entries: %d\n", cfg.Cache.MaxEntries)
	fmt.Printf("sessions.capacity: %d\n", cfg.Sessions.Capacity)
	fmt.Printf("sessions.ttl: %s\n", cfg.Sessions.TTL)

	g := cfg.Generation
	fmt.Printf("generation.depth: %s\n", g.Depth)
	fmt.Printf("generation.strategy: %s\n", g.Strategy)
	fmt.Printf("generation.parallel: %t\n", g.Parallel)
	fmt.Printf("generation.workers: %d\n", g.Workers)
	fmt.Printf("generation.max_retries: %d\n", g.MaxRetries)
	fmt.Printf("generation.temperature: %.2f\n", g.Temperature)
	fmt.Printf("generation.max_tokens: %d\n", g.MaxTokens)
	fmt.Printf("generation.chapters: %d\n", g.Chapters)

	fmt.Printf("archive.enabled: %t\n", cfg.Archive.Enabled)
	fmt.Printf("archive.path: %s\n", archivePath(cfg))
	fmt.Printf("archive.retention: %s\n", cfg.Archive.Retention)
	fmt.Printf("server.addr: %s\n", cfg.Server.Addr)
	fmt.Printf("server.cors: %t\n", cfg.Server.CORS)
	fmt.Printf("server.allowed_origins: %s\n", strings.Join(cfg.Server.AllowedOrigins, ", "))
	fmt.Printf("logging.debug_log: %s\n", cfg.Logging.DebugLog)

	if path := config.GetProjectConfigPath(); path != "" {
		fmt.Printf("\n(project overrides from %s)\n", path)
	}
}
