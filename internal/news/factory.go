package news

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
)

// NewProvider creates the provider named by cfg.Provider
func NewProvider(cfg model.NewsConfig, httpClient *http.Client, userAgent string, log logging.Logger) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gnews":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gnews: %w (set GNEWS_API_KEY or news.api_key)", ErrMissingCredential)
		}
		return NewGNewsProvider(cfg, httpClient), nil
	case "rss":
		if len(cfg.Feeds) == 0 {
			return nil, fmt.Errorf("rss: news.feeds is empty")
		}
		return NewRSSProvider(cfg, httpClient, userAgent, log), nil
	default:
		return nil, fmt.Errorf("unknown news provider: %s (supported: gnews, rss)", cfg.Provider)
	}
}
