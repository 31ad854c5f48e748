package generator

import (
	"fmt"
	"log/slog"
)

// BuildLLM 根据配置创建 LLMClient。
func BuildLLM(s LLMSettings) (LLMClient, error) {
	switch s.Provider {
	case "", "openai":
		return NewOpenAILLM(s), nil
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if s.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		if s.Model == "" {
			s.Model = "deepseek-chat"
		}
		return NewOpenAILLM(s), nil
	case "anthropic":
		return NewAnthropicLLM(s), nil
	case "mock":
		return &MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", s.Provider)
	}
}

// BuildImages 根据配置创建 ImageClient。
func BuildImages(s ImageSettings, log *slog.Logger) (ImageClient, error) {
	switch s.Provider {
	case "", "replicate":
		r := NewReplicateImages(s)
		r.Log = log
		return r, nil
	case "openai":
		return NewOpenAIImages(s), nil
	case "mock":
		return &MockImages{}, nil
	default:
		return nil, fmt.Errorf("image provider %s not supported", s.Provider)
	}
}
