package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestOpenRouter_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-or-test" {
			t.Errorf("authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"## Loops"}}],"usage":{"prompt_tokens":12,"completion_tokens":34}}`)
	}))
	defer srv.Close()

	p, err := NewOpenRouter(OpenRouterConfig{APIKey: "sk-or-test", BaseURL: srv.URL + "/", Models: []string{"m1"}})
	if err != nil {
		t.Fatalf("NewOpenRouter: %v", err)
	}
	resp, err := p.Complete(context.Background(), "m1", Request{Prompt: "teach loops", System: "be brief", Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Text != "## Loops" || resp.InputTokens != 12 || resp.OutputTokens != 34 {
		t.Errorf("response = %+v", resp)
	}
	if got.Model != "m1" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("request = %+v", got)
	}
	if got.Messages[1].Content != "teach loops" {
		t.Errorf("user message = %q", got.Messages[1].Content)
	}
}

func TestOpenRouter_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	p, _ := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL, Models: []string{"m"}})
	_, err := p.Complete(context.Background(), "m", Request{Prompt: "x"})
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if d := retryAfter(err); d != 7*time.Second {
		t.Errorf("retry after = %s, want 7s", d)
	}
}

func TestOpenRouter_ErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":{"message":"upstream overloaded","code":429}}`)
	}))
	defer srv.Close()

	p, _ := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL, Models: []string{"m"}})
	_, err := p.Complete(context.Background(), "m", Request{Prompt: "x"})
	if !IsRateLimited(err) {
		t.Errorf("error code 429 in body should be a rate limit, got %v", err)
	}
}

func TestNewOpenRouter_Validation(t *testing.T) {
	if _, err := NewOpenRouter(OpenRouterConfig{Models: []string{"m"}}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewOpenRouter(OpenRouterConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without models")
	}
}

// geminiWire is the subset of the generateContent request body the tests inspect.
type geminiWire struct {
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func TestGemini_Complete(t *testing.T) {
	var got geminiWire
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if key := r.Header.Get("x-goog-api-key"); key != "AIza-test" {
			t.Errorf("api key header = %q", key)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates":[{"content":{"role":"model","parts":[{"text":"Part one. "},{"text":"Part two."}]}}],
			"usageMetadata":{"promptTokenCount":8,"candidatesTokenCount":16}
		}`)
	}))
	defer srv.Close()

	p, err := NewGemini(GeminiConfig{APIKey: "AIza-test", BaseURL: srv.URL, Models: []string{"gemini-2.0-flash"}})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	resp, err := p.Complete(context.Background(), "gemini-2.0-flash", Request{Prompt: "p", System: "s", MaxTokens: 100})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "Part one. Part two." {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.InputTokens != 8 || resp.OutputTokens != 16 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if got.SystemInstruction == nil || len(got.SystemInstruction.Parts) == 0 || got.SystemInstruction.Parts[0].Text != "s" {
		t.Errorf("system instruction not sent: %+v", got.SystemInstruction)
	}
	if got.GenerationConfig.MaxOutputTokens != 100 {
		t.Errorf("maxOutputTokens = %d", got.GenerationConfig.MaxOutputTokens)
	}
}

func TestGemini_Blocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	}))
	defer srv.Close()

	p, _ := NewGemini(GeminiConfig{APIKey: "k", BaseURL: srv.URL, Models: []string{"m"}})
	_, err := p.Complete(context.Background(), "m", Request{Prompt: "x"})
	var perr *ProviderError
	if !errors.As(err, &perr) || !strings.Contains(perr.Message, "SAFETY") {
		t.Errorf("expected blocked error, got %v", err)
	}
}

func TestGemini_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		rateLimited bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, true},
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"bad model","status":"INVALID_ARGUMENT"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			p, _ := NewGemini(GeminiConfig{APIKey: "k", BaseURL: srv.URL, Models: []string{"m"}})
			_, err := p.Complete(context.Background(), "m", Request{Prompt: "x"})
			var perr *ProviderError
			if !errors.As(err, &perr) || perr.StatusCode != tt.status {
				t.Fatalf("expected HTTP %d provider error, got %v", tt.status, err)
			}
			if perr.Provider != "gemini" {
				t.Errorf("provider = %q", perr.Provider)
			}
			if IsRateLimited(err) != tt.rateLimited {
				t.Errorf("IsRateLimited = %v, want %v", IsRateLimited(err), tt.rateLimited)
			}
		})
	}
}

func TestNewGemini_Validation(t *testing.T) {
	if _, err := NewGemini(GeminiConfig{Models: []string{"m"}}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewGemini(GeminiConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without models")
	}
}

func TestClip(t *testing.T) {
	s := "a" + strings.Repeat("é", 10)
	got := clip(s, 4)
	if !utf8.ValidString(got) {
		t.Fatalf("clip produced invalid UTF-8: %q", got)
	}
	if got != "aé..." {
		t.Errorf("clip = %q, want %q", got, "aé...")
	}
	if clip("short", 10) != "short" {
		t.Error("short strings should be unchanged")
	}
}

func TestManager_WithHTTPBackends(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"fine"}]}}]}`)
	}))
	defer ok.Close()

	or, _ := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: limited.URL, Models: []string{"a", "b"}})
	gm, _ := NewGemini(GeminiConfig{APIKey: "k", BaseURL: ok.URL, Models: []string{"g"}})
	sleeper := &recordingSleeper{}

	m := NewManager([]Backend{{Provider: or}, {Provider: gm}}, WithSleeper(sleeper.sleep))
	got, err := m.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Provider != "gemini" || got.Text != "fine" {
		t.Errorf("completion = %+v", got)
	}
	// Two retries on each of two tiers.
	if n := len(sleeper.recorded()); n != 4 {
		t.Errorf("backoff sleeps = %d, want 4", n)
	}
}
