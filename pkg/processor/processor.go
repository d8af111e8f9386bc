package processor

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/xhad/newsrag/internal/models"
)

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Processor splits documents into overlapping chunks, preferring
// paragraph, then line, then word boundaries before a hard cut.
type Processor struct {
	config   ProcessorConfig
	splitter textsplitter.RecursiveCharacter
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 800
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 80
	}

	return Processor{
		config: config,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
		),
	}
}

func New() Processor {
	return NewWithConfig(ProcessorConfig{})
}

// Process splits each document's text into chunks. Every chunk
// inherits its parent document's source URL; a document shorter than
// the chunk size yields exactly one chunk.
func (p *Processor) Process(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk

	for _, doc := range docs {
		parts, err := p.splitter.SplitText(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s: %w", doc.SourceURL, err)
		}

		for i, part := range parts {
			chunks = append(chunks, models.Chunk{
				SourceURL: doc.SourceURL,
				Ordinal:   i,
				Text:      part,
			})
		}
	}

	return chunks, nil
}
