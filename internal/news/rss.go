package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
)

// RSSProvider serves headlines from a fixed list of RSS/Atom feeds.
// Search filters the same items by keyword.
type RSSProvider struct {
	feeds        []string
	parser       *gofeed.Parser
	timeout      time.Duration
	maxHeadlines int
	maxSearch    int
	log          logging.Logger
}

// NewRSSProvider creates a feed-backed provider. httpClient may be nil.
func NewRSSProvider(cfg model.NewsConfig, httpClient *http.Client, userAgent string, log logging.Logger) *RSSProvider {
	parser := gofeed.NewParser()
	if httpClient != nil {
		parser.Client = httpClient
	}
	parser.UserAgent = userAgent

	return &RSSProvider{
		feeds:        cfg.Feeds,
		parser:       parser,
		timeout:      cfg.Timeout,
		maxHeadlines: cfg.MaxHeadlines,
		maxSearch:    cfg.MaxSearch,
		log:          logging.OrNop(log),
	}
}

func (r *RSSProvider) Name() string { return "rss" }

// TopHeadlines returns the first items across all feeds, in feed order
func (r *RSSProvider) TopHeadlines(ctx context.Context) ([]model.ArticleRecord, error) {
	items, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}
	return limit(items, r.maxHeadlines), nil
}

// Search returns items whose title or description contains query (case-insensitive)
func (r *RSSProvider) Search(ctx context.Context, query string) ([]model.ArticleRecord, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	items, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]model.ArticleRecord, 0)
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), query) ||
			strings.Contains(strings.ToLower(it.Description), query) {
			matched = append(matched, it)
		}
	}
	return limit(matched, r.maxSearch), nil
}

// collect fetches every feed. A batch fails only when no feed could be read.
func (r *RSSProvider) collect(ctx context.Context) ([]model.ArticleRecord, error) {
	if len(r.feeds) == 0 {
		return nil, &UpstreamError{Provider: r.Name(), Message: "no feeds configured"}
	}

	var (
		out  []model.ArticleRecord
		errs []error
	)
	for _, feedURL := range r.feeds {
		records, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			r.log.Warn("feed fetch failed", logging.String("feed", feedURL), logging.Err(err))
			errs = append(errs, err)
			continue
		}
		out = append(out, records...)
	}

	if len(errs) == len(r.feeds) {
		return nil, r.upstreamError(errors.Join(errs...))
	}
	return out, nil
}

func (r *RSSProvider) fetchFeed(ctx context.Context, feedURL string) ([]model.ArticleRecord, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", feedURL, err)
	}

	records := make([]model.ArticleRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := item.Link
		if link == "" && strings.HasPrefix(item.GUID, "http") {
			link = item.GUID
		}
		rec := model.ArticleRecord{
			Title:       strings.TrimSpace(item.Title),
			Description: stripHTML(item.Description),
			Content:     stripHTML(item.Content),
			URL:         link,
			PublishedAt: publishedAt(item),
			SourceName:  feed.Title,
		}
		if item.Image != nil {
			rec.Image = item.Image.URL
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *RSSProvider) upstreamError(err error) *UpstreamError {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return &UpstreamError{Provider: r.Name(), StatusCode: httpErr.StatusCode, Message: httpErr.Status, Err: err}
	}
	return &UpstreamError{Provider: r.Name(), Err: err}
}

func publishedAt(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	return item.Published
}

// stripHTML reduces feed markup to its text
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func limit(items []model.ArticleRecord, n int) []model.ArticleRecord {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
