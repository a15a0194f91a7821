package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"ai-masterbrain-be/internal/bootstrap"
	"ai-masterbrain-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{
			Port:           "0",
			Environment:    "test",
			LogFilePath:    dir + "/app.log",
			LLMLogFilePath: dir + "/llm.log",
			JWTSecret:      "test-secret",
			ContextTopic:   "contexts",
		},
		Database: config.DatabaseConfig{Driver: "memory"},
		Ai: config.AIConfig{
			EmbeddingProvider: "ollama",
			LLMProvider:       "ollama",
			LLMModel:          "llama3",
		},
		Brain: config.DefaultBrainConfig(),
	}
}

func TestServerRoutes(t *testing.T) {
	container, err := bootstrap.NewContainer(memoryConfig(t))
	require.NoError(t, err)
	t.Cleanup(container.Close)

	app := New(memoryConfig(t), container).GetApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "masterbrain_")

	resp, err = app.Test(httptest.NewRequest("GET", "/api/brain/master/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode, "brain routes require a token")
}
