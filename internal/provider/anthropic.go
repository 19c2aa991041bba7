package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicConfig configures an Anthropic backend.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// Models is the degradation ladder, best first.
	Models []string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
}

// Anthropic wraps the Anthropic SDK Messages API.
type Anthropic struct {
	inner  anthropic.Client
	models []string
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic: API key is required")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// Retries are the Manager's job.
	opts = append(opts, option.WithMaxRetries(0))

	models := cfg.Models
	if len(models) == 0 {
		models = []string{string(anthropic.ModelClaudeSonnet4_5_20250929), string(anthropic.ModelClaudeHaiku4_5_20251001)}
	}
	if cfg.UseAWSBedrock {
		translated := make([]string, len(models))
		for i, m := range models {
			translated[i] = translateModelForBedrock(m)
		}
		models = translated
	}

	return &Anthropic{inner: anthropic.NewClient(opts...), models: models}, nil
}

// translateModelForBedrock converts Anthropic model names to Bedrock cross-region inference profiles.
func translateModelForBedrock(model string) string {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
		"claude-sonnet-4-5":                     "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		"claude-haiku-4-5":                      "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	}
	if strings.HasPrefix(model, "us.anthropic") {
		return model
	}
	if b, ok := bedrockModels[anthropic.Model(model)]; ok {
		return b
	}
	return model
}

// Name implements Provider.
func (a *Anthropic) Name() string { return "anthropic" }

// Models implements Provider.
func (a *Anthropic) Models() []string { return append([]string(nil), a.models...) }

// Complete implements Provider.
func (a *Anthropic) Complete(ctx context.Context, model string, req Request) (Response, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := a.inner.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return Response{}, &ProviderError{Provider: a.Name(), StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return Response{}, &ProviderError{Provider: a.Name(), Message: err.Error()}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	return Response{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
