package news

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/newsverdict/internal/cache"
	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
)

// CachedProvider serves repeated keyword searches from a cache.
// Top headlines always reach the provider, since the periodic refreshes
// exist to pick up new stories. Errors are never cached.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
	log   logging.Logger
}

// NewCachedProvider wraps inner with c; ttl 0 uses the cache default
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration, log logging.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, ttl: ttl, log: logging.OrNop(log)}
}

func (p *CachedProvider) Name() string { return p.inner.Name() }

func (p *CachedProvider) TopHeadlines(ctx context.Context) ([]model.ArticleRecord, error) {
	return p.inner.TopHeadlines(ctx)
}

func (p *CachedProvider) Search(ctx context.Context, query string) ([]model.ArticleRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	key := cache.Key("search", p.inner.Name(), strings.ToLower(query))
	return p.cached(key, func() ([]model.ArticleRecord, error) {
		return p.inner.Search(ctx, query)
	})
}

func (p *CachedProvider) cached(key string, fetch func() ([]model.ArticleRecord, error)) ([]model.ArticleRecord, error) {
	if raw, ok := p.cache.Get(key); ok {
		var articles []model.ArticleRecord
		if err := json.Unmarshal(raw, &articles); err == nil {
			p.log.Debug("news cache hit", logging.String("key", key))
			return articles, nil
		}
		_ = p.cache.Delete(key)
	}

	articles, err := fetch()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(articles); err == nil {
		if err := p.cache.Set(key, raw, p.ttl); err != nil {
			p.log.Warn("news cache write failed", logging.Err(err))
		}
	}
	return articles, nil
}
