// Package news fetches top headlines and keyword search results.
package news

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/newsverdict/internal/model"
)

// ErrEmptyQuery is returned by Search for a blank keyword; no request is made
var ErrEmptyQuery = errors.New("please enter a keyword")

// ErrMissingCredential is returned when the provider needs an API key and has none
var ErrMissingCredential = errors.New("news provider API key is not configured")

// Provider returns ordered article lists
type Provider interface {
	Name() string
	TopHeadlines(ctx context.Context) ([]model.ArticleRecord, error)
	Search(ctx context.Context, query string) ([]model.ArticleRecord, error)
}

// UpstreamError means the provider could not deliver the batch.
// StatusCode is 0 when no HTTP response was received.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
