package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Generation.Depth != "standard" {
		t.Errorf("expected default depth 'standard', got %q", cfg.Generation.Depth)
	}
	if cfg.Generation.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Generation.Workers)
	}
	if cfg.Generation.MaxRetries != 2 {
		t.Errorf("expected max_retries 2, got %d", cfg.Generation.MaxRetries)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected cache ttl 1h, got %v", cfg.Cache.TTL)
	}
	if cfg.Sessions.Capacity != 100 {
		t.Errorf("expected session capacity 100, got %d", cfg.Sessions.Capacity)
	}
	if cfg.Sessions.TTL != 24*time.Hour {
		t.Errorf("expected session ttl 24h, got %v", cfg.Sessions.TTL)
	}
	if cfg.Providers.FailureThreshold != 3 {
		t.Errorf("expected failure threshold 3, got %d", cfg.Providers.FailureThreshold)
	}
	if len(cfg.Providers.OpenRouter.Models) < 2 {
		t.Errorf("expected several openrouter model tiers, got %v", cfg.Providers.OpenRouter.Models)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  order: [gemini, openrouter]
  failure_threshold: 5
  backoff_base: 500ms
  openrouter:
    api_key: sk-or-test-key
    models:
      - model-a
      - model-b
    requests_per_minute: 10
  anthropic:
    use_bedrock: true
    region: eu-west-1
cache:
  ttl: 30m
generation:
  depth: expert
  parallel: false
  workers: 5
sessions:
  capacity: 10
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if len(cfg.Providers.Order) != 2 || cfg.Providers.Order[0] != "gemini" {
		t.Errorf("unexpected order %v", cfg.Providers.Order)
	}
	if cfg.Providers.FailureThreshold != 5 {
		t.Errorf("expected failure threshold 5, got %d", cfg.Providers.FailureThreshold)
	}
	if cfg.Providers.BackoffBase != 500*time.Millisecond {
		t.Errorf("expected backoff 500ms, got %v", cfg.Providers.BackoffBase)
	}
	if cfg.Providers.OpenRouter.APIKey != "sk-or-test-key" {
		t.Errorf("expected api_key 'sk-or-test-key', got %q", cfg.Providers.OpenRouter.APIKey)
	}
	if len(cfg.Providers.OpenRouter.Models) != 2 || cfg.Providers.OpenRouter.Models[1] != "model-b" {
		t.Errorf("unexpected models %v", cfg.Providers.OpenRouter.Models)
	}
	if cfg.Providers.OpenRouter.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("expected default base url to survive, got %q", cfg.Providers.OpenRouter.BaseURL)
	}
	if !cfg.Providers.Anthropic.UseBedrock || cfg.Providers.Anthropic.Region != "eu-west-1" {
		t.Errorf("unexpected anthropic config %+v", cfg.Providers.Anthropic)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected cache ttl 30m, got %v", cfg.Cache.TTL)
	}
	if cfg.Generation.Depth != "expert" || cfg.Generation.Parallel || cfg.Generation.Workers != 5 {
		t.Errorf("unexpected generation config %+v", cfg.Generation)
	}
	if cfg.Generation.MaxRetries != 2 {
		t.Errorf("expected default max_retries 2, got %d", cfg.Generation.MaxRetries)
	}
	if cfg.Sessions.Capacity != 10 || cfg.Sessions.TTL != 24*time.Hour {
		t.Errorf("unexpected sessions config %+v", cfg.Sessions)
	}
}

func TestLoadFromPath_ExpandsEnv(t *testing.T) {
	t.Setenv("LESSONFORGE_TEST_KEY", "sk-or-from-env")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "providers:\n  openrouter:\n    api_key: ${LESSONFORGE_TEST_KEY}\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Providers.OpenRouter.APIKey != "sk-or-from-env" {
		t.Errorf("expected expanded key, got %q", cfg.Providers.OpenRouter.APIKey)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Generation.Depth = "comprehensive"
	cfg.Providers.Gemini.Models = []string{"gemini-x"}
	cfg.Server.Addr = ":9090"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Generation.Depth != "comprehensive" {
		t.Errorf("depth = %q, want comprehensive", loaded.Generation.Depth)
	}
	if len(loaded.Providers.Gemini.Models) != 1 || loaded.Providers.Gemini.Models[0] != "gemini-x" {
		t.Errorf("gemini models = %v", loaded.Providers.Gemini.Models)
	}
	if loaded.Server.Addr != ":9090" {
		t.Errorf("server addr = %q", loaded.Server.Addr)
	}
	if loaded.Cache.TTL != time.Hour {
		t.Errorf("cache ttl = %v", loaded.Cache.TTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad depth", func(c *Config) { c.Generation.Depth = "deep" }, true},
		{"bad strategy", func(c *Config) { c.Generation.Strategy = "magic" }, true},
		{"zero workers", func(c *Config) { c.Generation.Workers = 0 }, true},
		{"negative retries", func(c *Config) { c.Generation.MaxRetries = -1 }, true},
		{"unknown provider", func(c *Config) { c.Providers.Order = []string{"openai"} }, true},
		{"zero capacity", func(c *Config) { c.Sessions.Capacity = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/lessonforge"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestBackend(t *testing.T) {
	cfg := Default()
	if b, ok := cfg.Backend(ProviderAnthropic); !ok || len(b.Models) == 0 {
		t.Errorf("anthropic backend = %+v, %v", b, ok)
	}
	if _, ok := cfg.Backend("openai"); ok {
		t.Error("unknown backend should not resolve")
	}
}
