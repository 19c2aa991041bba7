// Package config handles configuration loading and management for lessonforge.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Provider names used as config keys.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
)

// ProjectConfigName is the project-level override file searched for from the working directory up.
const ProjectConfigName = ".lessonforge.yaml"

// Config holds all configuration for lessonforge.
type Config struct {
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sessions   SessionsConfig   `mapstructure:"sessions"`
	Generation GenerationConfig `mapstructure:"generation"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ProvidersConfig holds LLM backend settings and the failover policy.
type ProvidersConfig struct {
	// Order is the preferred backend order. Unknown or keyless backends are ignored.
	Order []string `mapstructure:"order"`
	// FailureThreshold is the number of consecutive failures that demote a backend.
	FailureThreshold int `mapstructure:"failure_threshold"`
	// RateLimitRetries is the number of backoff retries on HTTP 429 before degrading the model.
	RateLimitRetries int           `mapstructure:"rate_limit_retries"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffMax       time.Duration `mapstructure:"backoff_max"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`

	OpenRouter BackendConfig   `mapstructure:"openrouter"`
	Gemini     BackendConfig   `mapstructure:"gemini"`
	Anthropic  AnthropicConfig `mapstructure:"anthropic"`
}

// BackendConfig holds settings shared by every backend.
type BackendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	// Models is the degradation ladder, best first.
	Models            []string      `mapstructure:"models"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MinDelay          time.Duration `mapstructure:"min_delay"`
}

// AnthropicConfig adds Bedrock routing to the common backend settings.
type AnthropicConfig struct {
	BackendConfig `mapstructure:",squash"`
	UseBedrock    bool   `mapstructure:"use_bedrock"`
	Region        string `mapstructure:"region"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// SessionsConfig holds session store settings.
type SessionsConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// GenerationConfig holds lesson generation defaults.
type GenerationConfig struct {
	Depth       string  `mapstructure:"depth"`
	Strategy    string  `mapstructure:"strategy"`
	Parallel    bool    `mapstructure:"parallel"`
	Workers     int     `mapstructure:"workers"`
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	// Chapters is the fallback chapter count for the chapters strategy.
	Chapters int `mapstructure:"chapters"`
}

// ArchiveConfig holds lesson archive settings.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// Retention purges archived lessons older than this at startup. Zero keeps everything.
	Retention time.Duration `mapstructure:"retention"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	CORS           bool     `mapstructure:"cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds debug log settings.
type LoggingConfig struct {
	// DebugLog is the debug log file. Empty disables debug logging.
	DebugLog string `mapstructure:"debug_log"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (OPENROUTER_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY, LESSONFORGE_*)
// 2. Project config (.lessonforge.yaml in current directory or parent)
// 3. User config (~/.config/lessonforge/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("LESSONFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for provider, names := range envKeys {
		args := append([]string{"providers." + provider + ".api_key"}, names...)
		_ = v.BindEnv(args...)
	}
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Providers.OpenRouter.APIKey = expandEnv(cfg.Providers.OpenRouter.APIKey)
	cfg.Providers.Gemini.APIKey = expandEnv(cfg.Providers.Gemini.APIKey)
	cfg.Providers.Anthropic.APIKey = expandEnv(cfg.Providers.Anthropic.APIKey)
	cfg.Archive.Path = expandEnv(cfg.Archive.Path)
	cfg.Logging.DebugLog = expandEnv(cfg.Logging.DebugLog)

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside generation.
func (c *Config) Validate() error {
	if _, err := models.ParseDepthLevel(c.Generation.Depth); err != nil {
		return fmt.Errorf("generation.depth: %w", err)
	}
	if s := models.Strategy(c.Generation.Strategy); !s.Valid() {
		return fmt.Errorf("generation.strategy: unknown strategy %q", c.Generation.Strategy)
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("generation.workers must be at least 1, got %d", c.Generation.Workers)
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation.max_retries must not be negative, got %d", c.Generation.MaxRetries)
	}
	if c.Sessions.Capacity < 1 {
		return fmt.Errorf("sessions.capacity must be at least 1, got %d", c.Sessions.Capacity)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1, got %d", c.Cache.MaxEntries)
	}
	for _, name := range c.Providers.Order {
		if _, ok := envKeys[name]; !ok {
			return fmt.Errorf("providers.order: unknown provider %q", name)
		}
	}
	return nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveTo(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveTo writes the configuration to path as YAML.
func SaveTo(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	p := cfg.Providers
	v.Set("providers.order", p.Order)
	v.Set("providers.failure_threshold", p.FailureThreshold)
	v.Set("providers.rate_limit_retries", p.RateLimitRetries)
	v.Set("providers.backoff_base", p.BackoffBase.String())
	v.Set("providers.backoff_max", p.BackoffMax.String())
	v.Set("providers.request_timeout", p.RequestTimeout.String())
	setBackend(v, ProviderOpenRouter, p.OpenRouter)
	setBackend(v, ProviderGemini, p.Gemini)
	setBackend(v, ProviderAnthropic, p.Anthropic.BackendConfig)
	v.Set("providers.anthropic.use_bedrock", p.Anthropic.UseBedrock)
	v.Set("providers.anthropic.region", p.Anthropic.Region)

	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("cache.max_entries", cfg.Cache.MaxEntries)
	v.Set("sessions.capacity", cfg.Sessions.Capacity)
	v.Set("sessions.ttl", cfg.Sessions.TTL.String())

	g := cfg.Generation
	v.Set("generation.depth", g.Depth)
	v.Set("generation.strategy", g.Strategy)
	v.Set("generation.parallel", g.Parallel)
	v.Set("generation.workers", g.Workers)
	v.Set("generation.max_retries", g.MaxRetries)
	v.Set("generation.temperature", g.Temperature)
	v.Set("generation.max_tokens", g.MaxTokens)
	v.Set("generation.chapters", g.Chapters)

	v.Set("archive.enabled", cfg.Archive.Enabled)
	v.Set("archive.path", cfg.Archive.Path)
	v.Set("archive.retention", cfg.Archive.Retention.String())
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.cors", cfg.Server.CORS)
	v.Set("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.Set("logging.debug_log", cfg.Logging.DebugLog)

	return v.WriteConfig()
}

func setBackend(v *viper.Viper, name string, b BackendConfig) {
	prefix := "providers." + name + "."
	v.Set(prefix+"api_key", b.APIKey)
	v.Set(prefix+"base_url", b.BaseURL)
	v.Set(prefix+"models", b.Models)
	v.Set(prefix+"requests_per_minute", b.RequestsPerMinute)
	v.Set(prefix+"min_delay", b.MinDelay.String())
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults mirrors Default so that partial files still produce a usable config.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("providers.order", d.Providers.Order)
	v.SetDefault("providers.failure_threshold", d.Providers.FailureThreshold)
	v.SetDefault("providers.rate_limit_retries", d.Providers.RateLimitRetries)
	v.SetDefault("providers.backoff_base", d.Providers.BackoffBase.String())
	v.SetDefault("providers.backoff_max", d.Providers.BackoffMax.String())
	v.SetDefault("providers.request_timeout", d.Providers.RequestTimeout.String())
	setBackendDefaults(v, ProviderOpenRouter, d.Providers.OpenRouter)
	setBackendDefaults(v, ProviderGemini, d.Providers.Gemini)
	setBackendDefaults(v, ProviderAnthropic, d.Providers.Anthropic.BackendConfig)
	v.SetDefault("providers.anthropic.use_bedrock", false)
	v.SetDefault("providers.anthropic.region", d.Providers.Anthropic.Region)

	v.SetDefault("cache.ttl", d.Cache.TTL.String())
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("sessions.capacity", d.Sessions.Capacity)
	v.SetDefault("sessions.ttl", d.Sessions.TTL.String())

	v.SetDefault("generation.depth", d.Generation.Depth)
	v.SetDefault("generation.strategy", d.Generation.Strategy)
	v.SetDefault("generation.parallel", d.Generation.Parallel)
	v.SetDefault("generation.workers", d.Generation.Workers)
	v.SetDefault("generation.max_retries", d.Generation.MaxRetries)
	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.chapters", d.Generation.Chapters)

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.retention", "0s")
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors", d.Server.CORS)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("logging.debug_log", "")
}

func setBackendDefaults(v *viper.Viper, name string, b BackendConfig) {
	prefix := "providers." + name + "."
	v.SetDefault(prefix+"api_key", "")
	v.SetDefault(prefix+"base_url", b.BaseURL)
	v.SetDefault(prefix+"models", b.Models)
	v.SetDefault(prefix+"requests_per_minute", b.RequestsPerMinute)
	v.SetDefault(prefix+"min_delay", b.MinDelay.String())
}

// getUserConfigDir returns the XDG config directory for lessonforge.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lessonforge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "lessonforge")
	}
	return filepath.Join(home, ".config", "lessonforge")
}

// getUserDataDir returns the XDG data directory for lessonforge.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "lessonforge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "lessonforge")
	}
	return filepath.Join(home, ".local", "share", "lessonforge")
}

// findProjectConfig searches for .lessonforge.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Order:            []string{ProviderOpenRouter, ProviderGemini, ProviderAnthropic},
			FailureThreshold: 3,
			RateLimitRetries: 2,
			BackoffBase:      2 * time.Second,
			BackoffMax:       30 * time.Second,
			RequestTimeout:   90 * time.Second,
			OpenRouter: BackendConfig{
				BaseURL: "https://openrouter.ai/api/v1",
				Models: []string{
					"anthropic/claude-3.5-sonnet",
					"meta-llama/llama-3.3-70b-instruct",
					"meta-llama/llama-3.3-70b-instruct:free",
				},
				RequestsPerMinute: 20,
				MinDelay:          time.Second,
			},
			Gemini: BackendConfig{
				BaseURL:           "https://generativelanguage.googleapis.com",
				Models:            []string{"gemini-2.0-flash", "gemini-1.5-flash"},
				RequestsPerMinute: 15,
				MinDelay:          2 * time.Second,
			},
			Anthropic: AnthropicConfig{
				BackendConfig: BackendConfig{
					Models:            []string{"claude-sonnet-4-5", "claude-haiku-4-5"},
					RequestsPerMinute: 50,
				},
				Region: "us-east-1",
			},
		},
		Cache: CacheConfig{
			TTL:        time.Hour,
			MaxEntries: 500,
		},
		Sessions: SessionsConfig{
			Capacity: 100,
			TTL:      24 * time.Hour,
		},
		Generation: GenerationConfig{
			Depth:       string(models.DepthStandard),
			Strategy:    string(models.StrategyTasks),
			Parallel:    true,
			Workers:     3,
			MaxRetries:  2,
			Temperature: 0.7,
			MaxTokens:   4096,
			Chapters:    4,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    filepath.Join(getUserDataDir(), "lessons.db"),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}
