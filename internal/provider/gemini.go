package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
)

// GeminiConfig configures a Gemini backend.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the Generative Language API endpoint.
	BaseURL    string
	Models     []string
	HTTPClient *http.Client
}

// Gemini calls generateContent through the Google Gen AI SDK.
type Gemini struct {
	client *genai.Client
	models []string
}

// NewGemini creates a Gemini backend.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("gemini: at least one model is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	}

	// With an API key the client does no I/O while being built.
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, models: append([]string(nil), cfg.Models...)}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// Models implements Provider.
func (g *Gemini) Models() []string { return append([]string(nil), g.models...) }

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, model string, req Request) (Response, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	logging.Debugf("[gemini] generateContent model=%s prompt=%d chars", model, len(req.Prompt))

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		return Response{}, g.wrapError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return Response{}, &ProviderError{Provider: g.Name(), Message: "prompt blocked: " + string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, &ProviderError{Provider: g.Name(), Message: "no candidates in response"}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	out := Response{Text: text.String()}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int64(u.PromptTokenCount)
		out.OutputTokens = int64(u.CandidatesTokenCount)
	}
	return out, nil
}

// wrapError maps SDK errors onto ProviderError so 429s drive the backoff.
func (g *Gemini) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return g.apiError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return g.apiError(*apiErrPtr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ProviderError{Provider: g.Name(), Message: err.Error()}
}

func (g *Gemini) apiError(apiErr genai.APIError) *ProviderError {
	msg := strings.TrimSpace(apiErr.Message)
	if msg == "" {
		msg = apiErr.Status
	}
	if msg == "" {
		msg = http.StatusText(apiErr.Code)
	}
	return &ProviderError{Provider: g.Name(), StatusCode: apiErr.Code, Message: clip(msg, maxErrorBody)}
}
