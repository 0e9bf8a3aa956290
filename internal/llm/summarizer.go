package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/newsverdict/internal/model"
)

// Summarizer wraps an optional Provider; a nil provider disables it
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(p Provider, config Config) *Summarizer {
	return &Summarizer{provider: p, config: config}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// Summarize returns a short neutral summary of the article.
// It returns "" without error when summaries are disabled.
func (s *Summarizer) Summarize(ctx context.Context, article model.ExtractedArticle) (string, error) {
	if !s.IsEnabled() {
		return "", nil
	}
	if strings.TrimSpace(article.Text) == "" {
		return "", fmt.Errorf("article has no text to summarize")
	}

	var allowed []string
	if article.URL != "" {
		allowed = []string{article.URL}
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Title:       article.Title,
		URL:         article.URL,
		Text:        article.Text,
		AllowedURLs: allowed,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s summary failed: %w", s.provider.Name(), err)
	}
	return resp.Summary, nil
}
