package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first JSON object or array embedded in raw model
// output, stripping markdown fences and surrounding prose.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", fmt.Errorf("no JSON found in model output")
	}

	open := text[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	end := strings.LastIndexByte(text, closer)
	if end < start {
		return "", fmt.Errorf("unterminated JSON in model output")
	}
	return text[start : end+1], nil
}

// DecodeJSON extracts and decodes the JSON document in raw into T.
func DecodeJSON[T any](raw string) (T, error) {
	var out T
	body, err := ExtractJSON(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("decode model JSON: %w", err)
	}
	return out, nil
}
