package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/newsrag/internal/models"
)

// Retriever returns the stored chunks nearest to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Generator produces an answer from a question and a context block.
type Generator interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}

type Config struct {
	TopK int
}

// Engine answers questions by stuffing the top retrieved chunks into a
// single prompt.
type Engine struct {
	config    Config
	retriever Retriever
	generator Generator
}

func NewWithConfig(config Config, retriever Retriever, generator Generator) *Engine {
	if config.TopK == 0 {
		config.TopK = 5
	}
	return &Engine{
		config:    config,
		retriever: retriever,
		generator: generator,
	}
}

// Answer holds a generated answer and the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources []models.ScoredChunk
}

// Answer retrieves the top chunks for the question and asks the model.
// One retrieval result backs both the prompt and the returned sources.
func (e *Engine) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	chunks, err := e.retriever.Retrieve(ctx, question, e.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	var contextBuilder strings.Builder
	for _, chunk := range chunks {
		contextBuilder.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", chunk.SourceURL, chunk.Text))
	}

	text, err := e.generator.Generate(ctx, question, contextBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Answer{
		Text:    text,
		Sources: chunks,
	}, nil
}
