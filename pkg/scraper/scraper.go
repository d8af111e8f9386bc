package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/xhad/newsrag/internal/models"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrNoContent reports that a page yielded no structural text.
var ErrNoContent = errors.New("no content extracted")

type ScraperConfig struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit float64 // requests per second
	OnStatus  func(url, msg string)
}

// Scraper fetches article URLs and extracts their structural text.
type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

// FetchError is a failure isolated to a single URL.
type FetchError struct {
	URL string
	Err error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e FetchError) Unwrap() error { return e.Err }

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

// FetchAll fetches each URL in order. Blank entries are dropped. A
// failure is recorded against its URL and does not stop the remaining
// fetches; only URLs that yielded non-empty text produce a Document.
func (s *Scraper) FetchAll(ctx context.Context, urls []string) ([]models.Document, []FetchError) {
	var (
		documents []models.Document
		failures  []FetchError
	)

	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}

		s.status(u, "fetching")
		doc, err := s.Fetch(ctx, u)
		if err != nil {
			s.status(u, err.Error())
			failures = append(failures, FetchError{URL: u, Err: err})
			continue
		}

		s.status(u, "processed")
		documents = append(documents, doc)
	}

	return documents, failures
}

// Fetch retrieves a single URL and extracts its content.
func (s *Scraper) Fetch(ctx context.Context, url string) (models.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Document{}, err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Document{}, fmt.Errorf("received status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return models.Document{}, err
	}

	text := extractContent(doc)
	if strings.TrimSpace(text) == "" {
		return models.Document{}, ErrNoContent
	}

	return models.Document{SourceURL: url, Text: text}, nil
}

// extractContent renders the page's primary content region as
// line-oriented markdown-like text. Headings keep their level as a
// '#' prefix, blockquotes get "> ", list items "* "; blocks are
// separated by blank lines.
func extractContent(doc *goquery.Document) string {
	doc.Find("script, style, meta, noscript, header, footer, nav").Remove()

	container := selectContainer(doc)
	if container == nil {
		return ""
	}

	var b strings.Builder
	container.Find("h1, h2, h3, h4, h5, h6, p, ul, ol, blockquote").Each(func(_ int, tag *goquery.Selection) {
		name := goquery.NodeName(tag)
		switch {
		case len(name) == 2 && name[0] == 'h':
			level := int(name[1] - '0')
			b.WriteString(strings.Repeat("#", level) + " " + blockText(tag) + "\n\n")
		case name == "p":
			b.WriteString(blockText(tag) + "\n\n")
		case name == "blockquote":
			b.WriteString("> " + blockText(tag) + "\n\n")
		case name == "ul" || name == "ol":
			tag.Find("li").Each(func(_ int, li *goquery.Selection) {
				b.WriteString("* " + blockText(li) + "\n")
			})
			b.WriteString("\n")
		}
	})

	return strings.TrimSpace(b.String())
}

// selectContainer picks the primary content region: first <article>,
// then <main>, then the document body.
func selectContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"article", "main", "body"} {
		if selected := doc.Find(selector).First(); selected.Length() > 0 {
			return selected
		}
	}
	return nil
}

func blockText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func (s *Scraper) status(url, msg string) {
	if s.config.OnStatus != nil {
		s.config.OnStatus(url, msg)
	}
}
