// Package extract fetches an article URL and extracts its title and body text.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/newsverdict/internal/cache"
	"github.com/ppiankov/newsverdict/internal/extract/adapters"
	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/util"
	"github.com/ppiankov/newsverdict/internal/worker"
)

// ErrExtractionFailed wraps every reason a URL produced no article text
var ErrExtractionFailed = errors.New("could not extract text from URL")

var (
	ErrInvalidURL = errors.New("invalid article URL")
	ErrDisallowed = errors.New("disallowed by robots.txt")
	ErrNotHTML    = errors.New("response is not an HTML page")
	ErrNoText     = errors.New("page has no article text")
)

// Options are the optional collaborators of an Extractor
type Options struct {
	Robots   *util.RobotsChecker
	Limiter  *worker.Limiter
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   logging.Logger
}

// Extractor turns a URL into an ExtractedArticle
type Extractor struct {
	fetcher  *Fetcher
	registry *adapters.Registry
	robots   *util.RobotsChecker
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	log      logging.Logger
}

// NewExtractor creates an extractor around fetcher
func NewExtractor(fetcher *Fetcher, opts Options) *Extractor {
	c := opts.Cache
	if c == nil {
		c = cache.Noop{}
	}
	return &Extractor{
		fetcher:  fetcher,
		registry: adapters.NewRegistry(),
		robots:   opts.Robots,
		limiter:  opts.Limiter,
		cache:    c,
		cacheTTL: opts.CacheTTL,
		log:      logging.OrNop(opts.Logger),
	}
}

// Extract fetches rawURL and returns its title and text.
// Every failure, including a page without text, wraps ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (model.ExtractedArticle, error) {
	rawURL = strings.TrimSpace(rawURL)

	// 1. Validate
	if err := ValidateURL(rawURL); err != nil {
		return model.ExtractedArticle{}, failed("validate", err)
	}

	key := cache.Key("url", rawURL)
	if raw, ok := e.cache.Get(key); ok {
		var cached model.ExtractedArticle
		if err := json.Unmarshal(raw, &cached); err == nil && cached.HasText() {
			e.log.Debug("extraction cache hit", logging.String("url", rawURL))
			return cached, nil
		}
	}

	// 2. robots.txt
	var crawlDelay time.Duration
	if e.robots != nil {
		allowed, delay, err := e.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return model.ExtractedArticle{}, failed("robots", err)
		}
		if !allowed {
			return model.ExtractedArticle{}, failed("robots", ErrDisallowed)
		}
		crawlDelay = delay
	}

	// 3. Pace requests per host
	if e.limiter != nil {
		if err := e.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return model.ExtractedArticle{}, failed("rate limit", err)
		}
	}

	// 4. Fetch
	res, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return model.ExtractedArticle{}, failed("fetch", err)
	}
	if !isHTML(res.ContentType) {
		return model.ExtractedArticle{}, failed("fetch", fmt.Errorf("%w: %s", ErrNotHTML, res.ContentType))
	}
	if res.Truncated {
		e.log.Warn("article body truncated", logging.String("url", rawURL))
	}

	// 5. Parse and extract
	root, err := html.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return model.ExtractedArticle{}, failed("parse", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	adapter := e.registry.FindAdapter(res.FinalURL, res.ContentType)
	art := adapter.Extract(doc)
	if strings.TrimSpace(art.Text) == "" {
		return model.ExtractedArticle{}, failed("extract", ErrNoText)
	}

	article := model.ExtractedArticle{URL: rawURL, Title: art.Title, Text: art.Text}
	e.log.Debug("article extracted",
		logging.String("url", rawURL),
		logging.String("adapter", adapter.Name()),
		logging.Int("chars", len(art.Text)))

	if raw, err := json.Marshal(article); err == nil {
		if err := e.cache.Set(key, raw, e.cacheTTL); err != nil {
			e.log.Warn("extraction cache write failed", logging.Err(err))
		}
	}
	return article, nil
}

// ValidateURL accepts absolute http and https URLs only
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func failed(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExtractionFailed, step, err)
}
