package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain object", `{"ranking":[2,1]}`, `{"ranking":[2,1]}`, false},
		{"fenced", "```json\n{\"ranked\":[1]}\n```", `{"ranked":[1]}`, false},
		{"prose around", `Sure! Here you go: {"ranking":[3]} hope it helps`, `{"ranking":[3]}`, false},
		{"bare array", `[2, 1, 3]`, `[2, 1, 3]`, false},
		{"no json", `I cannot rank these.`, "", true},
		{"unterminated", `{"ranking": [1, 2`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type ranking struct {
		Ranking []int `json:"ranking"`
	}

	got, err := DecodeJSON[ranking]("```json\n{\"ranking\": [3, 1]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, got.Ranking)

	_, err = DecodeJSON[ranking](`{"ranking": "first"}`)
	assert.Error(t, err)
}
