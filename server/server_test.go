package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/newsrag/internal/models"
	"github.com/xhad/newsrag/pkg/engine"
	"github.com/xhad/newsrag/pkg/scraper"
)

type fakeFetcher struct {
	docs     []models.Document
	failures []scraper.FetchError
}

func (f *fakeFetcher) FetchAll(_ context.Context, _ []string) ([]models.Document, []scraper.FetchError) {
	return f.docs, f.failures
}

type fakeChunker struct{ err error }

func (f *fakeChunker) Process(docs []models.Document) ([]models.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	chunks := make([]models.Chunk, len(docs))
	for i, doc := range docs {
		chunks[i] = models.Chunk{SourceURL: doc.SourceURL, Text: doc.Text}
	}
	return chunks, nil
}

type fakeIndex struct {
	added    []models.Chunk
	addErr   error
	cleared  bool
	clearErr error
}

func (f *fakeIndex) Add(_ context.Context, chunks []models.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks...)
	return nil
}

func (f *fakeIndex) Clear() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	return nil
}

type fakeAnswerer struct {
	answer *engine.Answer
	err    error
}

func (f *fakeAnswerer) Answer(_ context.Context, _ string) (*engine.Answer, error) {
	return f.answer, f.err
}

type testDeps struct {
	fetcher  *fakeFetcher
	chunker  *fakeChunker
	index    *fakeIndex
	answerer *fakeAnswerer
}

func newTestServer(t *testing.T, indexPath string, deps testDeps) *Server {
	t.Helper()
	if deps.fetcher == nil {
		deps.fetcher = &fakeFetcher{}
	}
	if deps.chunker == nil {
		deps.chunker = &fakeChunker{}
	}
	if deps.index == nil {
		deps.index = &fakeIndex{}
	}
	if deps.answerer == nil {
		deps.answerer = &fakeAnswerer{}
	}

	s, err := New(Config{IndexPath: indexPath}, Deps{
		Fetcher:  deps.fetcher,
		Chunker:  deps.chunker,
		Index:    deps.index,
		Answerer: deps.answerer,
	}, nil)
	require.NoError(t, err)
	return s
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createIndexDir(t *testing.T) string {
	t.Helper()
	indexPath := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.MkdirAll(indexPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(indexPath, "index.db"), []byte("db"), 0o644))
	return indexPath
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{})
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "News Researcher")
	assert.Contains(t, body, `name="url1"`)
	assert.Contains(t, body, "Process Articles")
	assert.Contains(t, body, "Clear Database")
	assert.Contains(t, body, "Please enter and process some news article URLs")
}

func TestHomePageShowsStartupNotice(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{})
	s.startup = []Notice{{Level: "success", Text: "Database cleared successfully on startup"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "Database cleared successfully on startup")
}

func TestProcessWithNoURLs(t *testing.T) {
	index := &fakeIndex{}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{index: index})

	rec := postForm(t, s.Router(), "/process", url.Values{"url1": {"  "}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter at least one URL.")
	assert.Empty(t, index.added)
}

func TestProcessSuccess(t *testing.T) {
	fetcher := &fakeFetcher{docs: []models.Document{
		{SourceURL: "https://example.com/a", Text: "article text"},
	}}
	index := &fakeIndex{}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{fetcher: fetcher, index: index})

	rec := postForm(t, s.Router(), "/process", url.Values{"url1": {"https://example.com/a"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Processed 1 articles successfully!")
	require.Len(t, index.added, 1)
	assert.Equal(t, []string{"https://example.com/a"}, s.Session().ProcessedURLs())
	assert.Contains(t, rec.Body.String(), "Ready to answer questions on 1 articles")
}

func TestProcessReportsPerURLFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		docs: []models.Document{{SourceURL: "https://example.com/good", Text: "text"}},
		failures: []scraper.FetchError{
			{URL: "https://example.com/bad", Err: fmt.Errorf("received status code 500")},
		},
	}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{fetcher: fetcher})

	rec := postForm(t, s.Router(), "/process", url.Values{
		"url1": {"https://example.com/bad"},
		"url2": {"https://example.com/good"},
	})

	body := rec.Body.String()
	assert.Contains(t, body, "failed to fetch https://example.com/bad")
	assert.Contains(t, body, "Processed 1 articles successfully!")
}

func TestProcessAllURLsFailed(t *testing.T) {
	fetcher := &fakeFetcher{failures: []scraper.FetchError{
		{URL: "https://example.com/bad", Err: fmt.Errorf("no content extracted")},
	}}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{fetcher: fetcher})

	rec := postForm(t, s.Router(), "/process", url.Values{"url1": {"https://example.com/bad"}})

	assert.Contains(t, rec.Body.String(), "No content could be retrieved from the provided URLs.")
	assert.Zero(t, s.Session().Count())
}

func TestClearResetsSessionAndMarks(t *testing.T) {
	index := &fakeIndex{}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{index: index})
	s.Session().AddProcessed([]string{"https://example.com/a"})

	rec := postForm(t, s.Router(), "/clear", url.Values{})

	assert.True(t, index.cleared)
	assert.Zero(t, s.Session().Count())
	assert.Contains(t, rec.Body.String(), "Database marked for deletion.")
	assert.Contains(t, rec.Body.String(), "Restart the server")
}

func TestClearFailureIsReported(t *testing.T) {
	index := &fakeIndex{clearErr: fmt.Errorf("disk trouble")}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{index: index})
	s.Session().AddProcessed([]string{"https://example.com/a"})

	rec := postForm(t, s.Router(), "/clear", url.Values{})

	assert.Contains(t, rec.Body.String(), "Error marking database for deletion")
	assert.Equal(t, 1, s.Session().Count(), "session survives a failed clear")
}

func TestProcessAfterClearPromptsRestart(t *testing.T) {
	fetcher := &fakeFetcher{docs: []models.Document{
		{SourceURL: "https://example.com/a", Text: "article text"},
	}}
	index := &fakeIndex{}
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{fetcher: fetcher, index: index})

	postForm(t, s.Router(), "/clear", url.Values{})
	rec := postForm(t, s.Router(), "/process", url.Values{"url1": {"https://example.com/a"}})

	assert.Contains(t, rec.Body.String(), "Restart the server before processing new articles.")
	assert.Empty(t, index.added, "nothing reaches the closed index")
	assert.NotContains(t, rec.Body.String(), "database is closed")
}

func TestAskAfterClearPromptsRestart(t *testing.T) {
	indexPath := createIndexDir(t)
	answerer := &fakeAnswerer{err: fmt.Errorf("sql: database is closed")}
	s := newTestServer(t, indexPath, testDeps{answerer: answerer})

	postForm(t, s.Router(), "/clear", url.Values{})
	rec := postForm(t, s.Router(), "/ask", url.Values{"question": {"anything?"}})

	assert.Contains(t, rec.Body.String(), "Restart the server before asking questions.")
	assert.NotContains(t, rec.Body.String(), "database is closed")
}

func TestAskWithoutIndex(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{})

	rec := postForm(t, s.Router(), "/ask", url.Values{"question": {"anything?"}})

	assert.Contains(t, rec.Body.String(), "No data in the database. Please process some URLs first.")
}

func TestAskRendersAnswerAndSources(t *testing.T) {
	indexPath := createIndexDir(t)
	answerer := &fakeAnswerer{answer: &engine.Answer{
		Text: "The articles say so.",
		Sources: []models.ScoredChunk{
			{Chunk: models.Chunk{SourceURL: "https://example.com/a", Text: "supporting excerpt"}, Score: 0.9},
		},
	}}
	s := newTestServer(t, indexPath, testDeps{answerer: answerer})
	s.Session().AddProcessed([]string{"https://example.com/a"})

	rec := postForm(t, s.Router(), "/ask", url.Values{"question": {"what happened?"}})

	body := rec.Body.String()
	assert.Contains(t, body, "The articles say so.")
	assert.Contains(t, body, "Source: https://example.com/a")
	assert.Contains(t, body, "supporting excerpt")
}

func TestAskGenerationError(t *testing.T) {
	indexPath := createIndexDir(t)
	answerer := &fakeAnswerer{err: fmt.Errorf("model rejected the request")}
	s := newTestServer(t, indexPath, testDeps{answerer: answerer})

	rec := postForm(t, s.Router(), "/ask", url.Values{"question": {"what happened?"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error generating response: model rejected the request")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "index"), testDeps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
