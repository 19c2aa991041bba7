package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
)

// DefaultOpenRouterURL is the OpenRouter API base.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig configures an OpenRouter backend.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
	// Referer and Title are sent as HTTP-Referer and X-Title for OpenRouter rankings.
	Referer    string
	Title      string
	HTTPClient *http.Client
}

// OpenRouter speaks the OpenAI-compatible chat completions API.
type OpenRouter struct {
	cfg  OpenRouterConfig
	http *http.Client
}

// NewOpenRouter creates an OpenRouter backend.
func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter: API key is required")
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("openrouter: at least one model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &OpenRouter{cfg: cfg, http: client}, nil
}

// Name implements Provider.
func (o *OpenRouter) Name() string { return "openrouter" }

// Models implements Provider.
func (o *OpenRouter) Models() []string { return append([]string(nil), o.cfg.Models...) }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// Complete implements Provider.
func (o *OpenRouter) Complete(ctx context.Context, model string, req Request) (Response, error) {
	var msgs []chatMessage
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := o.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	if o.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", o.cfg.Referer)
	}
	if o.cfg.Title != "" {
		httpReq.Header.Set("X-Title", o.cfg.Title)
	}

	logging.Debugf("[openrouter] POST %s model=%s prompt=%d chars", endpoint, model, len(req.Prompt))

	resp, err := o.http.Do(httpReq)
	if err != nil {
		return Response{}, &ProviderError{Provider: o.Name(), Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, newHTTPError(o.Name(), resp.StatusCode, respBody, resp.Header)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	// OpenRouter reports some upstream failures in a 200 body.
	if out.Error != nil && out.Error.Message != "" {
		status := 0
		_ = json.Unmarshal(out.Error.Code, &status)
		return Response{}, &ProviderError{Provider: o.Name(), StatusCode: status, Message: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return Response{}, &ProviderError{Provider: o.Name(), Message: "no choices in response"}
	}

	return Response{
		Text:         out.Choices[0].Message.Content,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}
