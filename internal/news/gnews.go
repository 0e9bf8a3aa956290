package news

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ppiankov/newsverdict/internal/model"
)

// GNewsProvider queries the GNews v4 API
type GNewsProvider struct {
	client       *resty.Client
	apiKey       string
	language     string
	country      string
	maxHeadlines int
	maxSearch    int
}

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

type gnewsError struct {
	Errors any `json:"errors"`
}

// NewGNewsProvider creates a GNews client. httpClient may be nil.
func NewGNewsProvider(cfg model.NewsConfig, httpClient *http.Client) *GNewsProvider {
	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &GNewsProvider{
		client:       client,
		apiKey:       cfg.APIKey,
		language:     cfg.Language,
		country:      cfg.Country,
		maxHeadlines: cfg.MaxHeadlines,
		maxSearch:    cfg.MaxSearch,
	}
}

func (g *GNewsProvider) Name() string { return "gnews" }

// TopHeadlines calls GET /top-headlines
func (g *GNewsProvider) TopHeadlines(ctx context.Context) ([]model.ArticleRecord, error) {
	return g.get(ctx, "/top-headlines", map[string]string{
		"max": strconv.Itoa(g.maxHeadlines),
	})
}

// Search calls GET /search with the keyword
func (g *GNewsProvider) Search(ctx context.Context, query string) ([]model.ArticleRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return g.get(ctx, "/search", map[string]string{
		"q":   query,
		"max": strconv.Itoa(g.maxSearch),
	})
}

func (g *GNewsProvider) get(ctx context.Context, path string, params map[string]string) ([]model.ArticleRecord, error) {
	if g.apiKey == "" {
		return nil, ErrMissingCredential
	}

	if g.language != "" {
		params["lang"] = g.language
	}
	if g.country != "" {
		params["country"] = g.country
	}
	params["apikey"] = g.apiKey

	var out gnewsResponse
	var apiErr gnewsError
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		// The request URL carries the key; report the path only
		return nil, &UpstreamError{Provider: g.Name(), Message: "request " + path + " failed", Err: unwrapURLError(err)}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &UpstreamError{Provider: g.Name(), StatusCode: resp.StatusCode(), Message: errorMessage(apiErr)}
	}

	articles := make([]model.ArticleRecord, 0, len(out.Articles))
	for _, a := range out.Articles {
		articles = append(articles, model.ArticleRecord{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			Image:       a.Image,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		})
	}
	return articles, nil
}

func errorMessage(e gnewsError) string {
	switch v := e.Errors.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(v))
		for _, k := range keys {
			if s, ok := v[k].(string); ok {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	case string:
		return v
	default:
		return ""
	}
}

// unwrapURLError strips *url.Error so the query string (and API key) is not echoed
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
