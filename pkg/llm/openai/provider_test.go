package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-masterbrain-be/pkg/llm"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.Equal(t, 0.7, body["temperature"])
		assert.Equal(t, float64(2000), body["max_completion_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Answer"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42}
		}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk-test", "gpt-test", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	out, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "question"}},
		llm.WithMaxTokens(2000),
	)

	require.NoError(t, err)
	assert.Equal(t, "Answer", out.Text)
	assert.Equal(t, 42, out.TokensUsed)
}

func TestChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[],"usage":{"total_tokens":0}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk-test", "m", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	_, err := p.Generate(context.Background(), "q")
	assert.Error(t, err)
}
