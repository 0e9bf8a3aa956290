// Package adapters turns a parsed article page into a title and body text.
// Site-specific adapters are tried first; the generic adapter handles the rest.
package adapters

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Article is the text an adapter found on a page
type Article struct {
	Title string
	Text  string
}

// Adapter extracts article content for the pages it recognizes
type Adapter interface {
	Name() string
	CanHandle(rawURL string, contentType string) bool
	Extract(doc *goquery.Document) Article
}

// Registry holds site adapters plus the generic fallback
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	r := &Registry{generic: NewGenericAdapter()}
	r.Register(NewWikipediaAdapter())
	return r
}

// Register adds a site adapter; later registrations are tried last
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// FindAdapter returns the first adapter that handles the URL, else the generic one
func (r *Registry) FindAdapter(rawURL, contentType string) Adapter {
	for _, a := range r.adapters {
		if a.CanHandle(rawURL, contentType) {
			return a
		}
	}
	return r.generic
}

// boilerplate elements never contribute article text
const boilerplate = "script, style, noscript, iframe, nav, footer, header, aside, form, svg"

// BaseAdapter has the helpers shared by adapters
type BaseAdapter struct{}

// StripBoilerplate removes navigation, scripts and similar chrome in place
func (BaseAdapter) StripBoilerplate(doc *goquery.Document) {
	doc.Find(boilerplate).Remove()
}

// Title returns og:title, then <title>, then the first <h1>
func (BaseAdapter) Title(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if og = CollapseSpace(og); og != "" {
			return og
		}
	}
	if t := CollapseSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return CollapseSpace(doc.Find("h1").First().Text())
}

// Paragraphs returns the non-empty, whitespace-collapsed text of each selected node
func (BaseAdapter) Paragraphs(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := CollapseSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// JoinParagraphs separates paragraphs with a blank line
func JoinParagraphs(paras []string) string {
	return strings.Join(paras, "\n\n")
}

// CollapseSpace trims and collapses runs of whitespace to one space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
