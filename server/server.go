package server

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xhad/newsrag/internal/models"
	"github.com/xhad/newsrag/internal/session"
	"github.com/xhad/newsrag/pkg/engine"
	"github.com/xhad/newsrag/pkg/scraper"
	"github.com/xhad/newsrag/pkg/store"
)

// Fetcher fetches article URLs into documents, isolating per-URL
// failures.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) ([]models.Document, []scraper.FetchError)
}

// Chunker splits documents into chunks.
type Chunker interface {
	Process(docs []models.Document) ([]models.Chunk, error)
}

// Indexer is the write side of the vector store.
type Indexer interface {
	Add(ctx context.Context, chunks []models.Chunk) error
	Clear() error
}

// Answerer generates an answer with its supporting chunks.
type Answerer interface {
	Answer(ctx context.Context, question string) (*engine.Answer, error)
}

type Config struct {
	Addr      string
	IndexPath string
}

// Notice is a user-visible status line. Level is one of "success",
// "info", "warning", "error".
type Notice struct {
	Level string
	Text  string
}

type Deps struct {
	Fetcher  Fetcher
	Chunker  Chunker
	Index    Indexer
	Answerer Answerer
	Logger   *slog.Logger
}

// Server is the web shell over the ingest and answer pipelines. All
// handlers are synchronous: the page blocks while fetching, indexing
// or generating.
type Server struct {
	config  Config
	deps    Deps
	session *session.Session
	startup []Notice
	tmpl    *template.Template

	// Set once Clear succeeds. The index handle is closed from that
	// point, so ingest and questions are refused until a restart
	// resolves the deletion marker.
	cleared atomic.Bool
}

// New builds the server. startup carries the outcome of resolving the
// deferred-deletion marker, displayed on the page.
func New(config Config, deps Deps, startup []Notice) (*Server, error) {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.IndexPath == "" {
		config.IndexPath = store.DefaultIndexPath
	}
	if deps.Fetcher == nil || deps.Chunker == nil || deps.Index == nil || deps.Answerer == nil {
		return nil, fmt.Errorf("all pipeline components are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	tmpl, err := template.New("page").Parse(pageHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Server{
		config:  config,
		deps:    deps,
		session: session.New(),
		startup: startup,
		tmpl:    tmpl,
	}, nil
}

// Session exposes the shell's in-memory state, mainly for tests.
func (s *Server) Session() *session.Session { return s.session }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Post("/process", s.handleProcess)
	r.Post("/clear", s.handleClear)
	r.Post("/ask", s.handleAsk)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

func (s *Server) ListenAndServe() error {
	s.deps.Logger.Info("starting server", "addr", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.Router())
}

type pageData struct {
	Notices        []Notice
	ProcessedURLs  []string
	ProcessedCount int
	HasIndex       bool
	Question       string
	Answer         *engine.Answer
}

func (s *Server) newPageData(notices []Notice) pageData {
	urls := s.session.ProcessedURLs()
	return pageData{
		Notices:        notices,
		ProcessedURLs:  urls,
		ProcessedCount: len(urls),
		HasIndex:       store.IndexExists(s.config.IndexPath),
	}
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	s.render(w, s.newPageData(s.startup))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var notices []Notice

	if s.cleared.Load() {
		notices = append(notices, Notice{"warning", "Database marked for deletion. Restart the server before processing new articles."})
		s.render(w, s.newPageData(notices))
		return
	}

	urls := make([]string, 0, 3)
	for _, field := range []string{"url1", "url2", "url3"} {
		if u := strings.TrimSpace(r.FormValue(field)); u != "" {
			urls = append(urls, u)
		}
	}

	if len(urls) == 0 {
		notices = append(notices, Notice{"warning", "Please enter at least one URL."})
		s.render(w, s.newPageData(notices))
		return
	}

	docs, failures := s.deps.Fetcher.FetchAll(r.Context(), urls)
	for _, failure := range failures {
		notices = append(notices, Notice{"error", failure.Error()})
	}

	if len(docs) == 0 {
		notices = append(notices, Notice{"error", "No content could be retrieved from the provided URLs."})
		s.render(w, s.newPageData(notices))
		return
	}

	chunks, err := s.deps.Chunker.Process(docs)
	if err != nil {
		notices = append(notices, Notice{"error", fmt.Sprintf("Failed to split articles: %v", err)})
		s.render(w, s.newPageData(notices))
		return
	}

	if err := s.deps.Index.Add(r.Context(), chunks); err != nil {
		notices = append(notices, Notice{"error", fmt.Sprintf("Failed to index articles: %v", err)})
		s.render(w, s.newPageData(notices))
		return
	}

	processed := make([]string, len(docs))
	for i, doc := range docs {
		processed[i] = doc.SourceURL
	}
	s.session.AddProcessed(processed)

	notices = append(notices, Notice{"success", fmt.Sprintf("Processed %d articles successfully!", len(docs))})
	s.render(w, s.newPageData(notices))
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	var notices []Notice

	if err := s.deps.Index.Clear(); err != nil {
		notices = append(notices, Notice{"error", fmt.Sprintf("Error marking database for deletion: %v", err)})
		s.render(w, s.newPageData(notices))
		return
	}

	s.cleared.Store(true)
	s.session.Reset()
	notices = append(notices,
		Notice{"success", "Database marked for deletion."},
		Notice{"info", "Restart the server to complete database clearing."},
	)
	s.render(w, s.newPageData(notices))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var notices []Notice

	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		notices = append(notices, Notice{"warning", "Please enter a question."})
		s.render(w, s.newPageData(notices))
		return
	}

	if s.cleared.Load() {
		notices = append(notices, Notice{"warning", "Database marked for deletion. Restart the server before asking questions."})
		data := s.newPageData(notices)
		data.Question = question
		s.render(w, data)
		return
	}

	if !store.IndexExists(s.config.IndexPath) {
		notices = append(notices, Notice{"warning", "No data in the database. Please process some URLs first."})
		data := s.newPageData(notices)
		data.Question = question
		s.render(w, data)
		return
	}

	answer, err := s.deps.Answerer.Answer(r.Context(), question)
	if err != nil {
		notices = append(notices, Notice{"error", fmt.Sprintf("Error generating response: %v", err)})
		data := s.newPageData(notices)
		data.Question = question
		s.render(w, data)
		return
	}

	data := s.newPageData(notices)
	data.Question = question
	data.Answer = answer
	s.render(w, data)
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.deps.Logger.Error("failed to render page", "err", err)
	}
}
