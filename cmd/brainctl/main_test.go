package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"ai-masterbrain-be/internal/bootstrap"
	"ai-masterbrain-be/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryOpener(t *testing.T) opener {
	dir := t.TempDir()
	return func() (*bootstrap.Container, error) {
		return bootstrap.NewContainer(&config.Config{
			App: config.AppConfig{
				LogFilePath:    dir + "/app.log",
				LLMLogFilePath: dir + "/llm.log",
				ContextTopic:   "contexts",
			},
			Database: config.DatabaseConfig{Driver: "memory"},
			Ai:       config.AIConfig{EmbeddingProvider: "ollama", LLMProvider: "ollama"},
			Brain:    config.DefaultBrainConfig(),
		})
	}
}

func TestSessionCreatePrintsId(t *testing.T) {
	var out bytes.Buffer
	app := newApp(memoryOpener(t), &out)

	err := app.Run([]string{"brainctl", "session", "create", "--user", uuid.NewString(), "--name", "Research"})
	require.NoError(t, err)

	var res struct {
		Id uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.NotEqual(t, uuid.Nil, res.Id)
}

func TestCommandsRejectBadInput(t *testing.T) {
	user := uuid.NewString()

	tests := []struct {
		name string
		args []string
	}{
		{"missing user", []string{"brainctl", "session", "list"}},
		{"bad user", []string{"brainctl", "session", "list", "--user", "nope"}},
		{"bad session id", []string{"brainctl", "session", "show", "--user", user, "not-a-uuid"}},
		{"empty question", []string{"brainctl", "query", "--user", user}},
		{"bad domain", []string{"brainctl", "query", "--user", user, "--domain", "x", "why"}},
		{"migrate without postgres", []string{"brainctl", "migrate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			app := newApp(memoryOpener(t), &out)
			assert.Error(t, app.Run(tt.args))
		})
	}
}

func TestSessionShowUnknownIsNotFound(t *testing.T) {
	var out bytes.Buffer
	app := newApp(memoryOpener(t), &out)

	err := app.Run([]string{"brainctl", "session", "show", "--user", uuid.NewString(), uuid.NewString()})
	assert.ErrorContains(t, err, "session not found")
}
