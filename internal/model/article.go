package model

import "strings"

// ArticleRecord is a single article returned by a news provider.
// Optional fields are empty strings when the provider omits them.
type ArticleRecord struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`
	PublishedAt string `json:"published_at,omitempty"` // Provider timestamp, passed through untouched
	SourceName  string `json:"source_name,omitempty"`
}

// AnalysisInput joins description and content with a single space.
// The separator is always present, so a record with only a description
// yields "description " and a record with neither yields " ".
func (a ArticleRecord) AnalysisInput() string {
	return a.Description + " " + a.Content
}

// ExtractedArticle is the result of extracting a page behind a URL.
// An empty Text means extraction failed.
type ExtractedArticle struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

// HasText reports whether the extractor produced any body text
func (e ExtractedArticle) HasText() bool {
	return e.Text != ""
}

// TokenCount counts whitespace-delimited tokens
func TokenCount(text string) int {
	return len(strings.Fields(text))
}
