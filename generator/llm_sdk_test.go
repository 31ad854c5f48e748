package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAILLM_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Title A\nTitle B"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAILLM(LLMSettings{BaseURL: srv.URL + "/"})
	c.Opts = []option.RequestOption{option.WithMaxRetries(0)}

	out, err := c.Complete(context.Background(), "sk-test", BuildBodyPrompt("Why Mars Matters"))
	require.NoError(t, err)
	assert.Equal(t, "Title A\nTitle B", out)
	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	assert.EqualValues(t, 1500, got["max_tokens"])
	assert.EqualValues(t, 0.7, got["temperature"])
	assert.Len(t, got["messages"], 2)

	_, err = c.Complete(context.Background(), "", BuildBodyPrompt("x"))
	assert.Error(t, err)
}

func TestOpenAIImages_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "url", body["response_format"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[{"url":"https://oaidalle.example/img.png"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIImages(ImageSettings{BaseURL: srv.URL + "/"})
	c.Opts = []option.RequestOption{option.WithMaxRetries(0)}

	u, err := c.Generate(context.Background(), "sk-test", BuildImagePrompt("Why Mars Matters"))
	require.NoError(t, err)
	assert.Equal(t, "https://oaidalle.example/img.png", u)
}

func TestAnthropicLLM_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
"content":[{"type":"text","text":"## Heading\n\nBody"}],"stop_reason":"end_turn","stop_sequence":null,
"usage":{"input_tokens":3,"output_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewAnthropicLLM(LLMSettings{BaseURL: srv.URL + "/"})
	c.Opts = []aoption.RequestOption{aoption.WithMaxRetries(0)}

	out, err := c.Complete(context.Background(), "sk-ant-test", BuildBodyPrompt("Why Mars Matters"))
	require.NoError(t, err)
	assert.Equal(t, "## Heading\n\nBody", out)
	assert.EqualValues(t, 1500, got["max_tokens"])
	assert.NotEmpty(t, got["system"])
}
