package generator

import "context"

// LLMClient 抽象大模型客户端，便于替换/Mock。credential 随每次调用传入，
// 客户端本身不持有密钥。
type LLMClient interface {
	Complete(ctx context.Context, credential string, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}
