package store_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/newsrag/internal/models"
	"github.com/xhad/newsrag/pkg/processor"
	"github.com/xhad/newsrag/pkg/scraper"
	"github.com/xhad/newsrag/pkg/store"
)

type constantEmbedder struct{}

func (constantEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 1, 1}
	}
	return out, nil
}

// Fetch a page, chunk it, index it, and get it back out.
func TestFetchChunkIndexRetrieve(t *testing.T) {
	page := `<html><body><article>
		<h1>Election Results</h1>
		<p>The count finished overnight.</p>
		<p>Turnout was the highest in a decade.</p>
	</article></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	ctx := context.Background()

	s := scraper.NewWithConfig(scraper.ScraperConfig{RateLimit: 100})
	doc, err := s.Fetch(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, doc.SourceURL)
	assert.True(t, strings.HasPrefix(doc.Text, "# "), "heading line leads the text")
	assert.Contains(t, doc.Text, "The count finished overnight.")
	assert.Contains(t, doc.Text, "Turnout was the highest in a decade.")

	p := processor.New()
	chunks, err := p.Process([]models.Document{doc})
	require.NoError(t, err)
	require.Len(t, chunks, 1, "short article stays a single chunk")
	assert.Equal(t, doc.Text, chunks[0].Text)

	vs, err := store.NewWithConfig(store.VectorStoreConfig{
		IndexPath: filepath.Join(t.TempDir(), "index"),
	}, constantEmbedder{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })

	require.NoError(t, vs.Add(ctx, chunks))

	results, err := vs.Retrieve(ctx, "any query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.Text, results[0].Text)
	assert.Equal(t, server.URL, results[0].SourceURL)
}
