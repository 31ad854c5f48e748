package generator

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIImages generates header images with the OpenAI images API. The API
// is synchronous; the returned URL is hosted by OpenAI and expires.
type OpenAIImages struct {
	Model   string
	BaseURL string
	Opts    []option.RequestOption
}

func NewOpenAIImages(s ImageSettings) *OpenAIImages {
	model := s.Model
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	return &OpenAIImages{Model: model, BaseURL: s.BaseURL}
}

func (o *OpenAIImages) Generate(ctx context.Context, credential string, prompt ImagePrompt) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", errors.New("openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(credential)}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	client := openai.NewClient(append(opts, o.Opts...)...)

	text := prompt.Prompt
	if prompt.NegativePrompt != "" {
		text += ". Avoid: " + prompt.NegativePrompt
	}
	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         text,
		Model:          openai.ImageModel(o.Model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1792x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("openai: no image url in response")
	}
	return resp.Data[0].URL, nil
}
