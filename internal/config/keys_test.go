package config

import (
	"errors"
	"testing"
)

func TestGetAPIKey(t *testing.T) {
	t.Run("from environment variable", func(t *testing.T) {
		t.Setenv("OPENROUTER_API_KEY", "sk-or-test-key")

		key, err := GetAPIKey(&Config{}, ProviderOpenRouter)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-or-test-key" {
			t.Errorf("expected 'sk-or-test-key', got %q", key)
		}
		if src := GetAPIKeySource(&Config{}, ProviderOpenRouter); src != KeySourceEnv {
			t.Errorf("expected source %q, got %q", KeySourceEnv, src)
		}
	})

	t.Run("gemini falls back to GOOGLE_API_KEY", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "AIza-google-key")

		key, err := GetAPIKey(&Config{}, ProviderGemini)
		if err != nil || key != "AIza-google-key" {
			t.Errorf("got %q, %v; want AIza-google-key", key, err)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		cfg := &Config{}
		cfg.Providers.Anthropic.APIKey = "sk-ant-config-key"
		key, err := GetAPIKey(cfg, ProviderAnthropic)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-config-key" {
			t.Errorf("expected 'sk-ant-config-key', got %q", key)
		}
		if src := GetAPIKeySource(cfg, ProviderAnthropic); src != KeySourceConfig {
			t.Errorf("expected source %q, got %q", KeySourceConfig, src)
		}
	})

	t.Run("unexpanded reference is ignored", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		cfg := &Config{}
		cfg.Providers.Anthropic.APIKey = "${LESSONFORGE_UNSET_VAR_FOR_TEST}"
		if _, err := GetAPIKey(cfg, ProviderAnthropic); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "")

		_, err := GetAPIKey(&Config{}, ProviderGemini)
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
		if src := GetAPIKeySource(&Config{}, ProviderGemini); src != KeySourceNone {
			t.Errorf("expected source none, got %q", src)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
		wantErr  bool
	}{
		{"valid openrouter key", ProviderOpenRouter, "sk-or-v1-abcdefghijklmnop", false},
		{"valid anthropic key", ProviderAnthropic, "sk-ant-REDACTED", false},
		{"wrong prefix", ProviderAnthropic, "sk-or-v1-abcdefghijklmnop", true},
		{"too short", ProviderOpenRouter, "sk-or-short", true},
		{"empty", ProviderGemini, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.provider, tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q, %q) error = %v, wantErr %v", tt.provider, tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"sk-or-v1-abcdefghijklmnop", "sk-or-...mnop"},
	}

	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
