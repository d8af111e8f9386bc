package models

// Document is the extracted text of one successfully fetched article,
// tagged with the URL it came from. Immutable once created.
type Document struct {
	SourceURL string
	Text      string
}

// Chunk is a bounded fragment of a Document's text. Ordinal is the
// chunk's position within its parent document.
type Chunk struct {
	SourceURL string
	Ordinal   int
	Text      string
}

// ScoredChunk is a chunk returned from similarity retrieval, with its
// cosine similarity to the query.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Excerpt returns at most n runes of the chunk text for display,
// appending an ellipsis when truncated.
func (c Chunk) Excerpt(n int) string {
	runes := []rune(c.Text)
	if len(runes) <= n {
		return c.Text
	}
	return string(runes[:n]) + "..."
}
