package generator

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 2048
)

// AnthropicLLM implements LLMClient with the Anthropic messages API.
type AnthropicLLM struct {
	Model   string
	BaseURL string
	Opts    []option.RequestOption
}

func NewAnthropicLLM(s LLMSettings) *AnthropicLLM {
	model := s.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicLLM{Model: model, BaseURL: s.BaseURL}
}

func (a *AnthropicLLM) Complete(ctx context.Context, credential string, prompt Prompt) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", errors.New("anthropic api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(credential)}
	if a.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.BaseURL))
	}
	client := anthropic.NewClient(append(opts, a.Opts...)...)

	maxTokens := int64(defaultAnthropicMaxTokens)
	if prompt.MaxTokens > 0 {
		maxTokens = int64(prompt.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User))},
	}
	if s := strings.TrimSpace(prompt.System); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}
	if prompt.Temperature != nil {
		params.Temperature = anthropic.Float(*prompt.Temperature)
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic: no text content")
	}
	return b.String(), nil
}
