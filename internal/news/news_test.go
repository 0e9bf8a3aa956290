package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/newsverdict/internal/cache"
	"github.com/ppiankov/newsverdict/internal/model"
)

func gnewsConfig(baseURL string) model.NewsConfig {
	cfg := model.DefaultConfig().News
	cfg.BaseURL = baseURL
	cfg.APIKey = "secret-key"
	return cfg
}

func TestGNewsProvider_TopHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/top-headlines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("lang") != "en" || q.Get("country") != "in" || q.Get("max") != "6" || q.Get("apikey") != "secret-key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalArticles":2,"articles":[
			{"title":"First","description":"Desc one","content":"Body one","url":"https://a.example/1","image":"https://a.example/1.jpg","publishedAt":"2024-01-01T00:00:00Z","source":{"name":"A"}},
			{"title":"Second","url":"https://b.example/2"}
		]}`))
	}))
	defer server.Close()

	p := NewGNewsProvider(gnewsConfig(server.URL), nil)
	articles, err := p.TopHeadlines(context.Background())
	if err != nil {
		t.Fatalf("TopHeadlines: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "First" || articles[0].SourceName != "A" || articles[0].Image == "" {
		t.Errorf("unexpected first article %+v", articles[0])
	}
	// Missing fields stay empty
	if articles[1].Description != "" || articles[1].Content != "" {
		t.Errorf("expected empty optional fields, got %+v", articles[1])
	}
	if got := articles[1].AnalysisInput(); got != " " {
		t.Errorf("expected single space analysis input, got %q", got)
	}
}

func TestGNewsProvider_Search(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "election" || r.URL.Query().Get("max") != "5" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"articles":[{"title":"Vote","url":"https://x/1"}]}`))
	}))
	defer server.Close()

	p := NewGNewsProvider(gnewsConfig(server.URL), nil)
	articles, err := p.Search(context.Background(), "  election ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("expected 1 article, got %d", len(articles))
	}

	if _, err := p.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("blank keyword must not reach the provider, got %d calls", n)
	}
}

func TestGNewsProvider_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["You did not provide an API key."]}`))
	}))
	defer server.Close()

	p := NewGNewsProvider(gnewsConfig(server.URL), nil)
	_, err := p.TopHeadlines(context.Background())

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", upErr.StatusCode)
	}
	if !strings.Contains(upErr.Error(), "API key") {
		t.Errorf("expected provider message in error, got %q", upErr.Error())
	}
}

func TestGNewsProvider_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	p := NewGNewsProvider(gnewsConfig(server.URL), nil)
	_, err := p.TopHeadlines(context.Background())

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", upErr.StatusCode)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestGNewsProvider_MissingKey(t *testing.T) {
	cfg := gnewsConfig("http://unused.invalid")
	cfg.APIKey = ""
	p := NewGNewsProvider(cfg, nil)
	if _, err := p.TopHeadlines(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

const testFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test Wire</title>
<item><title>Storm hits coast</title><link>https://wire.example/storm</link><description>&lt;p&gt;Heavy &lt;b&gt;rain&lt;/b&gt; expected&lt;/p&gt;</description></item>
<item><title>Election results</title><link>https://wire.example/election</link><description>Counting continues</description></item>
<item><title>Market update</title><guid>https://wire.example/market</guid><description>Stocks rise</description></item>
</channel></rss>`

func TestRSSProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer server.Close()

	cfg := model.DefaultConfig().News
	cfg.Feeds = []string{server.URL + "/broken", server.URL + "/feed"}
	cfg.MaxHeadlines = 2
	p := NewRSSProvider(cfg, nil, "newsverdict-test", nil)

	headlines, err := p.TopHeadlines(context.Background())
	if err != nil {
		t.Fatalf("TopHeadlines: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("expected 2 headlines, got %d", len(headlines))
	}
	if headlines[0].Title != "Storm hits coast" || headlines[0].Description != "Heavy rain expected" {
		t.Errorf("unexpected first headline %+v", headlines[0])
	}
	if headlines[0].SourceName != "Test Wire" {
		t.Errorf("expected feed title as source, got %q", headlines[0].SourceName)
	}

	found, err := p.Search(context.Background(), "ELECTION")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].URL != "https://wire.example/election" {
		t.Errorf("unexpected search result %+v", found)
	}

	all, _ := p.Search(context.Background(), "stocks")
	if len(all) != 1 || all[0].URL != "https://wire.example/market" {
		t.Errorf("expected guid fallback link, got %+v", all)
	}
}

func TestRSSProvider_AllFeedsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := model.DefaultConfig().News
	cfg.Feeds = []string{server.URL}
	p := NewRSSProvider(cfg, nil, "", nil)

	_, err := p.TopHeadlines(context.Background())
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", upErr.StatusCode)
	}
}

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) TopHeadlines(ctx context.Context) ([]model.ArticleRecord, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []model.ArticleRecord{{Title: "t", URL: "u"}}, nil
}

func (c *countingProvider) Search(ctx context.Context, q string) ([]model.ArticleRecord, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []model.ArticleRecord{{Title: q}}, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, nil)
	ctx := context.Background()

	_, _ = p.Search(ctx, "Go")
	_, _ = p.Search(ctx, "go")
	if inner.calls != 1 {
		t.Errorf("expected case-insensitive search cache, got %d calls", inner.calls)
	}

	if _, err := p.Search(ctx, ""); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestCachedProvider_HeadlinesAlwaysFresh(t *testing.T) {
	inner := &countingProvider{}
	cfg := model.DefaultConfig().Cache
	p := NewCachedProvider(inner, cache.NewLayeredCache(cfg.MemoryTTL, t.TempDir(), cfg.DiskTTL), cfg.MemoryTTL, nil)

	for i := 0; i < 3; i++ {
		got, err := p.TopHeadlines(context.Background())
		if err != nil || len(got) != 1 {
			t.Fatalf("TopHeadlines: %v %v", got, err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("expected every refresh to reach the provider, got %d calls", inner.calls)
	}
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: &UpstreamError{Provider: "counting", StatusCode: 500}}
	p := NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, nil)

	_, _ = p.Search(context.Background(), "storm")
	_, _ = p.Search(context.Background(), "storm")
	if inner.calls != 2 {
		t.Errorf("expected errors to bypass the cache, got %d calls", inner.calls)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := model.DefaultConfig().News
	if _, err := NewProvider(cfg, nil, "", nil); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected missing credential error, got %v", err)
	}

	cfg.APIKey = "k"
	if p, err := NewProvider(cfg, nil, "", nil); err != nil || p.Name() != "gnews" {
		t.Errorf("expected gnews provider, got %v %v", p, err)
	}

	cfg.Provider = "rss"
	if _, err := NewProvider(cfg, nil, "", nil); err == nil {
		t.Error("expected error for rss without feeds")
	}
	cfg.Feeds = []string{"https://example.com/feed"}
	if p, err := NewProvider(cfg, nil, "", nil); err != nil || p.Name() != "rss" {
		t.Errorf("expected rss provider, got %v %v", p, err)
	}

	cfg.Provider = "telegraph"
	if _, err := NewProvider(cfg, nil, "", nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
