package generator

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// Any OpenAI-compatible endpoint works through BaseURL.
type OpenAILLM struct {
	Model   string
	BaseURL string
	Opts    []option.RequestOption
}

func NewOpenAILLM(s LLMSettings) *OpenAILLM {
	model := s.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAILLM{Model: model, BaseURL: s.BaseURL}
}

func (o *OpenAILLM) Complete(ctx context.Context, credential string, prompt Prompt) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", errors.New("openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(credential)}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	client := openai.NewClient(append(opts, o.Opts...)...)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	}
	if prompt.Temperature != nil {
		params.Temperature = openai.Float(*prompt.Temperature)
	}
	if prompt.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(prompt.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
