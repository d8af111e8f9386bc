package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// EmbedderConfig represents the configuration for the embedding
// provider (Google Generative AI).
type EmbedderConfig struct {
	Model  string
	APIKey string
}

// Embedder computes embedding vectors for texts via the configured
// hosted embedding model.
type Embedder struct {
	config EmbedderConfig
	client *googleai.GoogleAI
}

func NewEmbedderWithConfig(ctx context.Context, config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "text-embedding-004"
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(config.APIKey),
		googleai.WithDefaultEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	return &Embedder{
		config: config,
		client: client,
	}, nil
}

// EmbedTexts returns one vector per input text, in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	return embeddings, nil
}
