package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider embeds through any OpenAI-compatible embedding API.
type OpenAIProvider struct {
	embedder embeddings.Embedder
}

// NewOpenAIProvider builds a provider against baseURL. An empty token is sent
// as "none" for local services that need no authentication.
func NewOpenAIProvider(baseURL, token, model string) (EmbeddingProvider, error) {
	if token == "" {
		token = "none"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &OpenAIProvider{embedder: embedder}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if taskType == TaskRetrievalQuery {
		values, err := p.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		return NewResponse(values), nil
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("openai returned an empty embedding")
	}
	return NewResponse(vectors[0]), nil
}
