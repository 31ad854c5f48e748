package generator

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"
)

// ImageClient 生成头图并返回可访问的图片 URL。异步任务型的实现必须轮询到
// 终态再返回；失败终态以 error 返回，不能返回空 URL。
type ImageClient interface {
	Generate(ctx context.Context, credential string, prompt ImagePrompt) (string, error)
}

// ImageSettings 配置头图生成服务。
type ImageSettings struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Model is the OpenAI image model, or the Replicate model version hash.
	Model        string        `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval,omitempty"`
	MaxWait      time.Duration `mapstructure:"max_wait" yaml:"max_wait,omitempty"`
}

// MockImages returns placeholder URLs without calling any service.
type MockImages struct {
	calls atomic.Int64
}

func (m *MockImages) Generate(_ context.Context, _ string, prompt ImagePrompt) (string, error) {
	n := m.calls.Add(1)
	return fmt.Sprintf("https://placehold.co/%dx%d/png?text=%s&v=%d",
		prompt.Width, prompt.Height, url.QueryEscape(quoted(prompt.Prompt)), n), nil
}
