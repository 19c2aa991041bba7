package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured for a provider.
var ErrNoAPIKey = errors.New("no API key configured")

// envKeys lists the environment variables consulted for each provider, in order.
var envKeys = map[string][]string{
	ProviderOpenRouter: {"OPENROUTER_API_KEY"},
	ProviderGemini:     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderAnthropic:  {"ANTHROPIC_API_KEY"},
}

// keyPrefixes are the documented key prefixes per provider.
var keyPrefixes = map[string]string{
	ProviderOpenRouter: "sk-or-",
	ProviderGemini:     "AIza",
	ProviderAnthropic:  "sk-ant-",
}

// EnvVars returns the environment variables consulted for a provider's key.
func EnvVars(provider string) []string {
	return append([]string(nil), envKeys[provider]...)
}

// Backend returns the common backend settings for a provider name.
func (c *Config) Backend(provider string) (BackendConfig, bool) {
	switch provider {
	case ProviderOpenRouter:
		return c.Providers.OpenRouter, true
	case ProviderGemini:
		return c.Providers.Gemini, true
	case ProviderAnthropic:
		return c.Providers.Anthropic.BackendConfig, true
	default:
		return BackendConfig{}, false
	}
}

// GetAPIKey returns the API key for a provider.
// It checks in order: environment variables, config file.
func GetAPIKey(cfg *Config, provider string) (string, error) {
	key, _ := lookupKey(cfg, provider)
	if key == "" {
		return "", fmt.Errorf("%w for %s", ErrNoAPIKey, provider)
	}
	return key, nil
}

// GetAPIKeySource returns where a provider's API key was sourced from.
func GetAPIKeySource(cfg *Config, provider string) KeySource {
	_, src := lookupKey(cfg, provider)
	return src
}

func lookupKey(cfg *Config, provider string) (string, KeySource) {
	for _, name := range envKeys[provider] {
		if key := os.Getenv(name); key != "" {
			return key, KeySourceEnv
		}
	}

	if cfg != nil {
		if b, ok := cfg.Backend(provider); ok && b.APIKey != "" {
			key := os.ExpandEnv(b.APIKey)
			if key != "" && !strings.HasPrefix(key, "${") {
				return key, KeySourceConfig
			}
		}
	}

	return "", KeySourceNone
}

// ValidateAPIKey performs basic validation on an API key.
// It checks format but does not verify the key with the provider.
func ValidateAPIKey(provider, key string) error {
	if key == "" {
		return ErrNoAPIKey
	}

	if prefix, ok := keyPrefixes[provider]; ok && !strings.HasPrefix(key, prefix) {
		return fmt.Errorf("invalid %s API key format: expected %q prefix", provider, prefix)
	}

	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 6 and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:6] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)
