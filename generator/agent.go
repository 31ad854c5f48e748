// Package generator talks to the external generative services: an LLM for
// titles, an LLM for the body, and an image model for the header image.
package generator

import (
	"context"
	"errors"
	"strings"
)

// Agent 负责把一次生成请求转成提示词、调用对应的模型并整理输出。
// It satisfies workflow.Gateway.
type Agent struct {
	titles LLMClient
	body   LLMClient
	images ImageClient
}

func NewAgent(titles, body LLMClient, images ImageClient) (*Agent, error) {
	if titles == nil || body == nil {
		return nil, errors.New("llm client is required")
	}
	if images == nil {
		return nil, errors.New("image client is required")
	}
	return &Agent{titles: titles, body: body, images: images}, nil
}

// GenerateTitles 返回若干候选标题，顺序与模型输出一致。
func (a *Agent) GenerateTitles(ctx context.Context, topic, credential string) ([]string, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("topic is required")
	}
	raw, err := a.titles.Complete(ctx, credential, BuildTitlesPrompt(topic))
	if err != nil {
		return nil, err
	}
	titles := ParseTitles(raw)
	if len(titles) == 0 {
		return nil, errors.New("model returned no titles")
	}
	return titles, nil
}

// GenerateBody 根据标题生成 Markdown 正文。
func (a *Agent) GenerateBody(ctx context.Context, title, credential string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", errors.New("title is required")
	}
	raw, err := a.body.Complete(ctx, credential, BuildBodyPrompt(title))
	if err != nil {
		return "", err
	}
	return PostProcess(raw)
}

// GenerateImage 根据标题生成头图，返回图片 URL。
func (a *Agent) GenerateImage(ctx context.Context, title, credential string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", errors.New("title is required")
	}
	u, err := a.images.Generate(ctx, credential, BuildImagePrompt(title))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(u) == "" {
		return "", errors.New("image service returned no url")
	}
	return u, nil
}
