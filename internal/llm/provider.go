// Package llm produces optional neutral summaries of checked articles.
// Summaries are informational only and never influence a verdict.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest is one article to summarize
type SummarizeRequest struct {
	Title string
	URL   string
	Text  string

	// AllowedURLs is the only set of URLs the summary may cite
	AllowedURLs []string

	Prompt    string // overrides BuildPrompt when set
	Model     string
	MaxTokens int
}

// SummarizeResponse is the provider output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	Provider  string // openai, ollama, "" disables
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int

	// StrictSources rejects summaries citing URLs outside AllowedURLs
	StrictSources bool
}

// DefaultConfig returns the disabled configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		MaxTokens:     300,
		StrictSources: true,
	}
}

// maxPromptChars bounds the article text sent to the model
const maxPromptChars = 6000

// BuildPrompt builds the default summarization prompt
func BuildPrompt(req SummarizeRequest) string {
	text := req.Text
	if runes := []rune(text); len(runes) > maxPromptChars {
		text = string(runes[:maxPromptChars]) + " [truncated]"
	}

	var b strings.Builder
	b.WriteString("Summarize the following news article in 3 neutral sentences.\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. Describe what the article reports. Do NOT judge whether it is real, fake, true or false.\n")
	b.WriteString("2. Do not add facts that are not in the article.\n")
	fmt.Fprintf(&b, "3. The only URL you may cite is: %s\n", joinURLs(req.AllowedURLs))
	b.WriteString("\n")
	if req.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", req.Title)
	}
	fmt.Fprintf(&b, "Article:\n%s\n", text)
	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(none)"
	}
	return strings.Join(urls, ", ")
}
